// Package handlers exposes the ledger services over HTTP. Handlers stay
// thin: parse the request, call the service, map the error taxonomy onto
// status codes.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hausledger/backend/internal/apperrors"
	"github.com/hausledger/backend/internal/logger"
	"github.com/hausledger/backend/internal/period"
	"github.com/hausledger/backend/internal/service"
)

// LedgerHandler serves all ledger endpoints.
type LedgerHandler struct {
	service *service.LedgerService
}

// NewLedgerHandler creates the handler over the ledger service.
func NewLedgerHandler(svc *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: svc}
}

// writeError maps a service error onto an HTTP status. Validation errors
// are 400, missing entities 404, missing auth 401, everything else 500
// with the detail kept out of the response body.
func writeError(c *gin.Context, err error) {
	switch {
	case apperrors.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		log := logger.FromContext(c.Request.Context())
		log.Error().Err(err).
			Str("path", c.FullPath()).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// pathID parses the :id path parameter as a UUID.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// parseRange resolves the queried date range: either explicit start/end
// dates (YYYY-MM-DD, end exclusive) or a timeframe plus optional period
// key, defaulting to the current month.
func parseRange(c *gin.Context) (start, end time.Time, err error) {
	startStr := c.Query("start")
	endStr := c.Query("end")
	if startStr != "" || endStr != "" {
		if startStr == "" || endStr == "" {
			return start, end, apperrors.Validation("start and end must be given together")
		}
		start, err = time.ParseInLocation("2006-01-02", startStr, time.UTC)
		if err != nil {
			return start, end, apperrors.Validation("invalid start date %q: expected YYYY-MM-DD", startStr)
		}
		end, err = time.ParseInLocation("2006-01-02", endStr, time.UTC)
		if err != nil {
			return start, end, apperrors.Validation("invalid end date %q: expected YYYY-MM-DD", endStr)
		}
		if !end.After(start) {
			return start, end, apperrors.Validation("end must be after start")
		}
		return start, end, nil
	}

	tf := period.Month
	if tfStr := c.Query("timeframe"); tfStr != "" {
		tf, err = period.ParseTimeframe(tfStr)
		if err != nil {
			return start, end, err
		}
	}
	key := c.Query("period")
	if key == "" {
		key = period.KeyFor(tf, time.Now().UTC())
	}
	r, err := period.Range(tf, key)
	if err != nil {
		return start, end, err
	}
	return r.Start, r.End, nil
}
