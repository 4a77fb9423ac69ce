// README: API gateway; holds module services for route registration.
package http

import (
	"github.com/sirupsen/logrus"

	"carrental/internal/http/handlers"
)

type SettlementService interface {
	handlers.Quoter
	handlers.Settler
}

type ServerDeps struct {
	Settlement SettlementService
	Agreement  handlers.PricingReader
	CostSheet  handlers.CostSheets
	Billing    handlers.Billing
	Log        logrus.FieldLogger
}

type Server struct {
	settlement SettlementService
	agreement  handlers.PricingReader
	costsheet  handlers.CostSheets
	billing    handlers.Billing
	log        logrus.FieldLogger
}

func NewServer(deps ServerDeps) *Server {
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		settlement: deps.Settlement,
		agreement:  deps.Agreement,
		costsheet:  deps.CostSheet,
		billing:    deps.Billing,
		log:        log,
	}
}
