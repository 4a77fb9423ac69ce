// README: Cost sheet handlers for recalculation, approval, and change detection.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carrental/internal/http/middleware"
	"carrental/internal/modules/costsheet"
	"carrental/internal/types"
)

type CostSheets interface {
	Recalculate(ctx context.Context, quoteID types.ID) (*costsheet.CostSheet, error)
	Submit(ctx context.Context, id types.ID, actor string) (*costsheet.CostSheet, error)
	Approve(ctx context.Context, id types.ID, actor string) (*costsheet.CostSheet, error)
	Reject(ctx context.Context, id types.ID, actor, reason string) (*costsheet.CostSheet, error)
	LatestApproved(ctx context.Context, quoteID types.ID) (costsheet.Approved, error)
	DetectChanges(ctx context.Context, quoteID types.ID) ([]costsheet.VehicleChange, error)
}

type CostSheetHandler struct {
	costsheets CostSheets
}

func NewCostSheetHandler(svc CostSheets) *CostSheetHandler {
	return &CostSheetHandler{costsheets: svc}
}

func (h *CostSheetHandler) Recalculate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cs, err := h.costsheets.Recalculate(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, cs)
}

func (h *CostSheetHandler) LatestApproved(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	a, err := h.costsheets.LatestApproved(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, a)
}

func (h *CostSheetHandler) VehicleChanges(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	changes, err := h.costsheets.DetectChanges(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if changes == nil {
		changes = []costsheet.VehicleChange{}
	}
	writeJSON(c, http.StatusOK, gin.H{"quote_id": id, "stale": len(changes) > 0, "changes": changes})
}

func (h *CostSheetHandler) Submit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cs, err := h.costsheets.Submit(c.Request.Context(), types.ID(id), middleware.ActorFrom(c))
	if errors.Is(err, costsheet.ErrAutoApprove) && cs != nil {
		writeJSON(c, http.StatusAccepted, gin.H{"cost_sheet": cs, "warning": err.Error()})
		return
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cs)
}

func (h *CostSheetHandler) Approve(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cs, err := h.costsheets.Approve(c.Request.Context(), types.ID(id), middleware.ActorFrom(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cs)
}

type rejectReq struct {
	Reason string `json:"reason"`
}

func (h *CostSheetHandler) Reject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req rejectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cs, err := h.costsheets.Reject(c.Request.Context(), types.ID(id), middleware.ActorFrom(c), req.Reason)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cs)
}
