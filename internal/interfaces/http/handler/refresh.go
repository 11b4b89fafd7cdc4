package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/funnel/backend/internal/domain/shared"
	"github.com/funnel/backend/internal/infrastructure/refresh"
	"github.com/funnel/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// RefreshTrigger runs the data refresh webhooks
type RefreshTrigger interface {
	TriggerRefresh(ctx context.Context) (*refresh.Result, error)
}

// RefreshHandler serves the update-data action
type RefreshHandler struct {
	BaseHandler
	refresher RefreshTrigger
}

// NewRefreshHandler creates a new RefreshHandler
func NewRefreshHandler(refresher RefreshTrigger) *RefreshHandler {
	return &RefreshHandler{refresher: refresher}
}

// Trigger calls every refresh webhook. Success answers 200 with the
// per-endpoint results; any failed endpoint answers 502 with the same data.
func (h *RefreshHandler) Trigger(c *gin.Context) {
	result, err := h.refresher.TriggerRefresh(c.Request.Context())
	if err == nil {
		h.Success(c, result)
		return
	}

	var domainErr *shared.DomainError
	if result == nil || !errors.As(err, &domainErr) || domainErr.Code != shared.ErrCodeRefreshTrigger {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusBadGateway, dto.NewErrorResponseWithData(
		domainErr.Code,
		domainErr.Message,
		getRequestID(c),
		result,
	))
}
