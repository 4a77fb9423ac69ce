// README: Agreement handlers for stored settlements and pricing breakdowns.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"carrental/internal/modules/agreement"
	"carrental/internal/modules/settlement"
	"carrental/internal/types"
)

type Settler interface {
	Settle(ctx context.Context, agreementID types.ID) (settlement.Settlement, error)
}

type PricingReader interface {
	Pricing(ctx context.Context, agreementID types.ID) (agreement.AgreementPricing, error)
}

type AgreementHandler struct {
	settlement Settler
	pricing    PricingReader
}

func NewAgreementHandler(settler Settler, pricing PricingReader) *AgreementHandler {
	return &AgreementHandler{settlement: settler, pricing: pricing}
}

func (h *AgreementHandler) Settlement(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	st, err := h.settlement.Settle(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, st)
}

func (h *AgreementHandler) Pricing(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.pricing.Pricing(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}
