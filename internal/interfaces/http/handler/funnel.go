package handler

import (
	"context"

	appfunnel "github.com/funnel/backend/internal/application/funnel"
	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/funnel/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DashboardReader is the read side of the dashboard
type DashboardReader interface {
	ListFunnels(ctx context.Context) ([]appfunnel.FunnelSummary, error)
	GetFunnelDetail(ctx context.Context, t funnel.FunnelType) (*appfunnel.FunnelDetail, error)
}

// FunnelHandler serves the dashboard overview and the funnel detail view
type FunnelHandler struct {
	BaseHandler
	dashboard DashboardReader
}

// NewFunnelHandler creates a new FunnelHandler
func NewFunnelHandler(dashboard DashboardReader) *FunnelHandler {
	return &FunnelHandler{dashboard: dashboard}
}

// List returns the funnels in dashboard order
func (h *FunnelHandler) List(c *gin.Context) {
	funnels, err := h.dashboard.ListFunnels(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]FunnelResponse, 0, len(funnels))
	for _, f := range funnels {
		out = append(out, toFunnelResponse(f))
	}
	h.SuccessList(c, out, len(out), 0)
}

// Detail returns the stage columns, totals, metrics and financial table of
// the funnel named by the :type path parameter.
func (h *FunnelHandler) Detail(c *gin.Context) {
	t, ok := h.funnelType(c)
	if !ok {
		return
	}

	detail, err := h.dashboard.GetFunnelDetail(c.Request.Context(), t)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toFunnelDetailResponse(detail))
}

// funnelType parses the :type path parameter, answering 404 for unknown types
func (h *BaseHandler) funnelType(c *gin.Context) (funnel.FunnelType, bool) {
	t, err := funnel.ParseFunnelType(c.Param("type"))
	if err != nil {
		h.NotFound(c, dto.ErrCodeFunnelNotFound, "Funnel not found")
		return "", false
	}
	return t, true
}
