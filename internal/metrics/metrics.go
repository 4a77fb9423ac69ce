// README: Prometheus collectors for settlements, workflow transitions, and HTTP traffic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carrental_settlements_total",
		Help: "Return settlements computed, by origin of the usage facts.",
	}, []string{"origin"})

	// DamageEstimateFallbacks counts repair costs that did not come from an exact
	// matrix entry. Operators watch this to spot unmapped damage categories.
	DamageEstimateFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carrental_damage_estimate_fallbacks_total",
		Help: "Damage repair costs resolved through a fallback row or the default cost.",
	}, []string{"source"})

	CostSheetTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carrental_costsheet_transitions_total",
		Help: "Cost sheet status transitions.",
	}, []string{"to"})

	BillingGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carrental_billing_generations_total",
		Help: "Billing cycle generations by result.",
	}, []string{"result"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carrental_http_requests_total",
		Help: "HTTP requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "carrental_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)
