// README: Billing cycle handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"carrental/internal/modules/billing"
	"carrental/internal/types"
)

type Billing interface {
	Preview(ctx context.Context, contractID types.ID, p types.Period) (billing.Preview, error)
	Generate(ctx context.Context, contractID types.ID, p types.Period) (*billing.Cycle, error)
	Finalize(ctx context.Context, id types.ID) (*billing.Cycle, error)
	MarkAsInvoiced(ctx context.Context, id types.ID, invoiceRef string) (*billing.Cycle, error)
	BatchGenerate(ctx context.Context, contractIDs []types.ID, p types.Period) (billing.BatchResult, error)
}

type BillingHandler struct {
	billing Billing
}

func NewBillingHandler(svc Billing) *BillingHandler {
	return &BillingHandler{billing: svc}
}

type periodReq struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

func (r periodReq) period() (types.Period, bool) {
	p, err := types.ParsePeriod(r.PeriodStart, r.PeriodEnd)
	return p, err == nil
}

func bindPeriod(c *gin.Context) (types.Period, bool) {
	var req periodReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return types.Period{}, false
	}
	p, ok := req.period()
	if !ok {
		writeError(c, http.StatusBadRequest, "period_start and period_end must be dates")
		return types.Period{}, false
	}
	return p, true
}

func (h *BillingHandler) Preview(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, ok := bindPeriod(c)
	if !ok {
		return
	}
	pv, err := h.billing.Preview(c.Request.Context(), types.ID(id), p)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, pv)
}

func (h *BillingHandler) Generate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, ok := bindPeriod(c)
	if !ok {
		return
	}
	cycle, err := h.billing.Generate(c.Request.Context(), types.ID(id), p)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cycle)
}

func (h *BillingHandler) Finalize(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cycle, err := h.billing.Finalize(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cycle)
}

type invoiceReq struct {
	InvoiceRef string `json:"invoice_ref"`
}

func (h *BillingHandler) Invoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req invoiceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cycle, err := h.billing.MarkAsInvoiced(c.Request.Context(), types.ID(id), req.InvoiceRef)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cycle)
}

type batchReq struct {
	periodReq
	ContractIDs []string `json:"contract_ids"`
}

func (h *BillingHandler) Batch(c *gin.Context) {
	var req batchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, ok := req.period()
	if !ok {
		writeError(c, http.StatusBadRequest, "period_start and period_end must be dates")
		return
	}
	if len(req.ContractIDs) == 0 {
		writeError(c, http.StatusBadRequest, "contract_ids is required")
		return
	}
	ids := make([]types.ID, 0, len(req.ContractIDs))
	for _, id := range req.ContractIDs {
		if !isValidID(id) {
			writeError(c, http.StatusBadRequest, "invalid contract id: "+id)
			return
		}
		ids = append(ids, types.ID(id))
	}
	res, err := h.billing.BatchGenerate(c.Request.Context(), ids, p)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	status := http.StatusOK
	if res.Failed > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(c, status, res)
}
