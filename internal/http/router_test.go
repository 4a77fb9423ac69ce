// README: Router tests over stub services (status mapping, binding, actor handling).
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/internal/modules/agreement"
	"carrental/internal/modules/billing"
	"carrental/internal/modules/costsheet"
	"carrental/internal/modules/settlement"
	"carrental/internal/types"
)

type stubSettlement struct {
	*settlement.Service
	settleErr error
}

func (s stubSettlement) Settle(ctx context.Context, id types.ID) (settlement.Settlement, error) {
	if s.settleErr != nil {
		return settlement.Settlement{}, s.settleErr
	}
	return settlement.Settlement{AgreementID: id, Currency: types.Currency}, nil
}

type stubPricing struct{}

func (stubPricing) Pricing(_ context.Context, id types.ID) (agreement.AgreementPricing, error) {
	if id == "missing" {
		return agreement.AgreementPricing{}, agreement.ErrNotFound
	}
	legacy := agreement.Resolve(agreement.Line{Pricing: agreement.PricingFields{StoredTotal: decimal.NewFromInt(900)}})
	return agreement.AgreementPricing{AgreementID: id, Agreement: legacy}, nil
}

type stubCostSheets struct {
	lastActor string
	err       error
}

func (s *stubCostSheets) Recalculate(_ context.Context, q types.ID) (*costsheet.CostSheet, error) {
	return &costsheet.CostSheet{ID: "cs1", QuoteID: q, Version: 1, Status: costsheet.StatusDraft}, s.err
}

func (s *stubCostSheets) Submit(_ context.Context, id types.ID, actor string) (*costsheet.CostSheet, error) {
	s.lastActor = actor
	if errors.Is(s.err, costsheet.ErrAutoApprove) {
		return &costsheet.CostSheet{ID: id, Status: costsheet.StatusPendingApproval}, s.err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &costsheet.CostSheet{ID: id, Status: costsheet.StatusApproved}, nil
}

func (s *stubCostSheets) Approve(_ context.Context, id types.ID, actor string) (*costsheet.CostSheet, error) {
	s.lastActor = actor
	return &costsheet.CostSheet{ID: id, Status: costsheet.StatusApproved}, s.err
}

func (s *stubCostSheets) Reject(_ context.Context, id types.ID, actor, reason string) (*costsheet.CostSheet, error) {
	s.lastActor = actor
	if reason == "" {
		return nil, costsheet.ErrBadRequest
	}
	return &costsheet.CostSheet{ID: id, Status: costsheet.StatusRejected, RejectReason: &reason}, nil
}

func (s *stubCostSheets) LatestApproved(context.Context, types.ID) (costsheet.Approved, error) {
	return costsheet.Approved{}, costsheet.ErrNotFound
}

func (s *stubCostSheets) DetectChanges(context.Context, types.ID) ([]costsheet.VehicleChange, error) {
	return nil, nil
}

type stubBilling struct {
	gotPeriod types.Period
}

func (s *stubBilling) Preview(_ context.Context, id types.ID, p types.Period) (billing.Preview, error) {
	s.gotPeriod = p
	if !p.Valid() {
		return billing.Preview{}, billing.ErrBadRequest
	}
	return billing.Preview{ContractID: id, Subtotal: decimal.NewFromInt(100), VAT: decimal.NewFromInt(5), GrandTotal: decimal.NewFromInt(105)}, nil
}

func (s *stubBilling) Generate(context.Context, types.ID, types.Period) (*billing.Cycle, error) {
	return nil, fmt.Errorf("%w: cycle is finalized", billing.ErrInvalidState)
}

func (s *stubBilling) Finalize(_ context.Context, id types.ID) (*billing.Cycle, error) {
	return &billing.Cycle{ID: id, Status: billing.StatusFinalized}, nil
}

func (s *stubBilling) MarkAsInvoiced(_ context.Context, id types.ID, ref string) (*billing.Cycle, error) {
	if ref == "" {
		return nil, billing.ErrBadRequest
	}
	return &billing.Cycle{ID: id, Status: billing.StatusInvoiced, InvoiceRef: &ref}, nil
}

func (s *stubBilling) BatchGenerate(_ context.Context, ids []types.ID, _ types.Period) (billing.BatchResult, error) {
	return billing.BatchResult{Succeeded: len(ids) - 1, Failed: 1, Errors: map[string]string{string(ids[0]): "boom"}}, nil
}

type fixture struct {
	handler   http.Handler
	costs     *stubCostSheets
	bills     *stubBilling
	settleErr error
}

func newFixture(t *testing.T, settleErr error) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	f := &fixture{costs: &stubCostSheets{}, bills: &stubBilling{}}
	srv := NewServer(ServerDeps{
		Settlement: stubSettlement{Service: settlement.NewService(nil, nil, nil, logger), settleErr: settleErr},
		Agreement:  stubPricing{},
		CostSheet:  f.costs,
		Billing:    f.bills,
		Log:        logger,
	})
	f.handler = srv.Routes()
	return f
}

func (f *fixture) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	w = f.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "carrental_http_requests_total")
}

func TestQuoteRunsCalculators(t *testing.T) {
	f := newFixture(t, nil)
	sched := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	w := f.do(http.MethodPost, "/api/charges/quote", map[string]any{
		"vehicle_class":       "standard",
		"fuel_policy":         "FULL_TO_FULL",
		"tank_capacity":       60,
		"included_km":         500,
		"daily_rate":          "250",
		"security_deposit":    "1000",
		"scheduled_return":    sched,
		"actual_return":       sched.Add(2*time.Hour + 30*time.Minute),
		"checkout_fuel_level": 100,
		"checkin_fuel_level":  75,
		"checkout_odometer":   1000,
		"checkin_odometer":    1600,
		"cleaning":            "light",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var st settlement.Settlement
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	// 15 L shortage at 4.5/L
	assert.Equal(t, "67.5", st.Fuel.Charge.String())
	// 2.5h late minus the 1h grace
	assert.Equal(t, "1.5", st.LateReturn.LateHours.String())
	assert.Equal(t, types.Currency, st.Currency)
}

func TestQuoteValidation(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(http.MethodPost, "/api/charges/quote", map[string]any{"vehicle_class": "standard"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeposit(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(http.MethodPost, "/api/charges/deposit", map[string]any{
		"security_deposit": "1000",
		"total_charges":    "1250.50",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "0", body["refund"])
	assert.Equal(t, "250.5", body["additional_payment"])
}

func TestSettlementErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{settlement.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: no check-in", settlement.ErrNotReturned), http.StatusConflict},
		{fmt.Errorf("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		f := newFixture(t, tc.err)
		w := f.do(http.MethodGet, "/api/agreements/ag-1/settlement", nil, nil)
		assert.Equal(t, tc.want, w.Code, "err=%v", tc.err)
	}
}

func TestPricingRoute(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(http.MethodGet, "/api/agreements/ag-1/pricing", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	ag := body["agreement"].(map[string]any)
	assert.Equal(t, true, ag["isLegacy"])
	assert.Equal(t, false, ag["hasBreakdown"])

	w = f.do(http.MethodGet, "/api/agreements/missing/pricing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, "/api/agreements/bad%20id/pricing", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCostSheetDecisionsRequireActor(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/api/cost-sheets/cs1/submit", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/cost-sheets/cs1/submit", nil, map[string]string{"X-Actor": "alice"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", f.costs.lastActor)
	assert.Equal(t, "approved", decode(t, w)["status"])

	w = f.do(http.MethodPost, "/api/cost-sheets/cs1/reject", map[string]string{"reason": ""}, map[string]string{"X-Actor": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCostSheetLockedAndConflict(t *testing.T) {
	f := newFixture(t, nil)
	hdr := map[string]string{"X-Actor": "alice"}

	f.costs.err = costsheet.ErrLocked
	w := f.do(http.MethodPost, "/api/cost-sheets/cs1/submit", nil, hdr)
	assert.Equal(t, http.StatusLocked, w.Code)

	f.costs.err = costsheet.ErrConflict
	w = f.do(http.MethodPost, "/api/cost-sheets/cs1/submit", nil, hdr)
	assert.Equal(t, http.StatusConflict, w.Code)

	f.costs.err = fmt.Errorf("%w: %w", costsheet.ErrAutoApprove, costsheet.ErrConflict)
	w = f.do(http.MethodPost, "/api/cost-sheets/cs1/submit", nil, hdr)
	require.Equal(t, http.StatusAccepted, w.Code)
	body := decode(t, w)
	assert.Equal(t, "pending_approval", body["cost_sheet"].(map[string]any)["status"])
	assert.Contains(t, body["warning"], "auto-approval failed")
}

func TestCostSheetQuoteRoutes(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/api/quotes/q1/cost-sheets", nil, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "draft", decode(t, w)["status"])

	w = f.do(http.MethodGet, "/api/quotes/q1/cost-sheets/approved", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, "/api/quotes/q1/vehicle-changes", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["stale"])
	assert.Empty(t, body["changes"])
}

func TestBillingRoutes(t *testing.T) {
	f := newFixture(t, nil)
	period := map[string]string{"period_start": "2025-03-01", "period_end": "2025-03-31"}

	w := f.do(http.MethodPost, "/api/contracts/c1/billing/preview", period, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "105", decode(t, w)["grand_total"])
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), f.bills.gotPeriod.Start)
	assert.Equal(t, time.Date(2025, 3, 31, 23, 59, 59, 999999999, time.UTC), f.bills.gotPeriod.End, "a plain end date covers the whole day")

	// explicit timestamps are taken as given
	w = f.do(http.MethodPost, "/api/contracts/c1/billing/preview", map[string]string{
		"period_start": "2025-03-01T00:00:00Z",
		"period_end":   "2025-03-15T12:00:00Z",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC), f.bills.gotPeriod.End)

	w = f.do(http.MethodPost, "/api/contracts/c1/billing/preview", map[string]string{"period_start": "2025-03-31", "period_end": "2025-03-01"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/contracts/c1/billing/preview", map[string]string{"period_start": "March"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/contracts/c1/billing/generate", period, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(http.MethodPost, "/api/billing-cycles/b1/finalize", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodPost, "/api/billing-cycles/b1/invoice", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/billing-cycles/b1/invoice", map[string]string{"invoice_ref": "INV-9"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "INV-9", decode(t, w)["invoice_ref"])
}

func TestBillingBatch(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/api/billing/batch", map[string]any{
		"period_start": "2025-03-01",
		"period_end":   "2025-03-31",
		"contract_ids": []string{"c1", "c2", "c3"},
	}, nil)
	require.Equal(t, http.StatusMultiStatus, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 2, body["succeeded"])
	assert.EqualValues(t, 1, body["failed"])

	w = f.do(http.MethodPost, "/api/billing/batch", map[string]any{
		"period_start": "2025-03-01",
		"period_end":   "2025-03-31",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
