// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carrental/internal/modules/agreement"
	"carrental/internal/modules/billing"
	"carrental/internal/modules/costsheet"
	"carrental/internal/modules/settlement"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts UUIDs and the legacy alphanumeric identifiers.
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps module sentinels onto HTTP status codes.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, settlement.ErrBadRequest), errors.Is(err, agreement.ErrBadRequest),
		errors.Is(err, costsheet.ErrBadRequest), errors.Is(err, billing.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, settlement.ErrNotFound), errors.Is(err, agreement.ErrNotFound),
		errors.Is(err, costsheet.ErrNotFound), errors.Is(err, billing.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, costsheet.ErrLocked):
		writeError(c, http.StatusLocked, err.Error())
	case errors.Is(err, costsheet.ErrInvalidState), errors.Is(err, costsheet.ErrConflict),
		errors.Is(err, billing.ErrInvalidState), errors.Is(err, billing.ErrConflict),
		errors.Is(err, settlement.ErrNotReturned):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, costsheet.ErrNoLines):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func pathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid id")
		return "", false
	}
	return id, true
}
