package handler

import (
	"context"
	"strings"

	appfunnel "github.com/funnel/backend/internal/application/funnel"
	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader lets clients suppress duplicate report submissions
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// ReportGenerator is the report side of the dashboard
type ReportGenerator interface {
	GenerateReport(ctx context.Context, t funnel.FunnelType, idempotencyKey string) (*appfunnel.GeneratedReport, error)
	ListReports(ctx context.Context, filter funnel.ReportFilter) ([]funnel.ReportView, error)
}

// ReportHandler generates report snapshots and lists the history
type ReportHandler struct {
	BaseHandler
	reports ReportGenerator
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports ReportGenerator) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Generate stores a report for the funnel named by :type and answers 201
func (h *ReportHandler) Generate(c *gin.Context) {
	t, ok := h.funnelType(c)
	if !ok {
		return
	}

	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		key = key[:maxIdempotencyKeyLength]
	}

	generated, err := h.reports.GenerateReport(c.Request.Context(), t, key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toReportResponse(generated.Report, generated.Funnel.Name, generated.Funnel.Type))
}

// List returns stored reports newest first, filtered by funnel_id and date
func (h *ReportHandler) List(c *gin.Context) {
	var query ListReportsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.ValidationError(c, err)
		return
	}

	filter, err := query.toFilter()
	if err != nil {
		h.ValidationError(c, err)
		return
	}

	reports, err := h.reports.ListReports(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]ReportResponse, 0, len(reports))
	for _, r := range reports {
		out = append(out, toReportResponse(r.Report, r.FunnelName, r.FunnelType))
	}
	h.SuccessList(c, out, len(out), query.Limit)
}
