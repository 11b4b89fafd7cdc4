package handler

import (
	"fmt"
	"time"

	appfunnel "github.com/funnel/backend/internal/application/funnel"
	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/funnel/backend/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FunnelResponse is a funnel card of the overview
type FunnelResponse struct {
	ID       uuid.UUID         `json:"id"`
	Name     string            `json:"name"`
	Type     funnel.FunnelType `json:"type"`
	Label    string            `json:"label"`
	Position int               `json:"position"`
}

// StageResponse is one stage row of a source column
type StageResponse struct {
	ID                string           `json:"id"`
	StageName         funnel.StageName `json:"stage_name"`
	Label             string           `json:"label"`
	LeadCount         int64            `json:"lead_count"`
	LeadCountDisplay  string           `json:"lead_count_display"`
	TotalValue        decimal.Decimal  `json:"total_value"`
	TotalValueDisplay string           `json:"total_value_display"`
	Source            *string          `json:"source,omitempty"`
}

// SourceGroupResponse is a stage column of the detail view
type SourceGroupResponse struct {
	Key       string                 `json:"key"`
	Label     string                 `json:"label"`
	Known     bool                   `json:"known"`
	Stages    []StageResponse        `json:"stages"`
	Financial FinancialTableResponse `json:"financial"`
}

// MetricsResponse holds the performance metrics with display strings
type MetricsResponse struct {
	ConversionRate        decimal.Decimal `json:"conversion_rate"`
	ConversionRateDisplay string          `json:"conversion_rate_display"`
	ClosedRevenue         decimal.Decimal `json:"closed_revenue"`
	ClosedRevenueDisplay  string          `json:"closed_revenue_display"`
	TotalPipeline         decimal.Decimal `json:"total_pipeline"`
	TotalPipelineDisplay  string          `json:"total_pipeline_display"`
	AverageTicket         decimal.Decimal `json:"average_ticket"`
	AverageTicketDisplay  string          `json:"average_ticket_display"`
	ClosedLeads           int64           `json:"closed_leads"`
	EntryLeads            int64           `json:"entry_leads"`
}

// FinancialRowResponse is one row of the financial table
type FinancialRowResponse struct {
	StageName           funnel.StageName `json:"stage_name,omitempty"`
	Label               string           `json:"label"`
	LeadCount           int64            `json:"lead_count"`
	TotalValue          decimal.Decimal  `json:"total_value"`
	TotalValueDisplay   string           `json:"total_value_display"`
	AverageValue        decimal.Decimal  `json:"average_value"`
	AverageValueDisplay string           `json:"average_value_display"`
}

// FinancialTableResponse is the financial table with its total row
type FinancialTableResponse struct {
	Rows  []FinancialRowResponse `json:"rows"`
	Total FinancialRowResponse   `json:"total"`
}

// FunnelDetailResponse is the payload of the funnel detail view
type FunnelDetailResponse struct {
	Funnel         FunnelResponse         `json:"funnel"`
	Groups         []SourceGroupResponse  `json:"groups"`
	Total          []StageResponse        `json:"total"`
	UnknownSources []string               `json:"unknown_sources"`
	Metrics        MetricsResponse        `json:"metrics"`
	Financial      FinancialTableResponse `json:"financial"`
}

// ReportResponse is a stored report snapshot
type ReportResponse struct {
	ID                    uuid.UUID         `json:"id"`
	FunnelID              uuid.UUID         `json:"funnel_id"`
	FunnelName            string            `json:"funnel_name"`
	FunnelType            funnel.FunnelType `json:"funnel_type"`
	ReportDate            time.Time         `json:"report_date"`
	ConversionRate        decimal.Decimal   `json:"conversion_rate"`
	ConversionRateDisplay string            `json:"conversion_rate_display"`
	ClosedRevenue         decimal.Decimal   `json:"closed_revenue"`
	ClosedRevenueDisplay  string            `json:"closed_revenue_display"`
	TotalPipeline         decimal.Decimal   `json:"total_pipeline"`
	TotalPipelineDisplay  string            `json:"total_pipeline_display"`
	AverageTicket         decimal.Decimal   `json:"average_ticket"`
	AverageTicketDisplay  string            `json:"average_ticket_display"`
	CreatedAt             time.Time         `json:"created_at"`
}

// ListReportsQuery are the query parameters of the report history
type ListReportsQuery struct {
	FunnelID string `form:"funnel_id" binding:"omitempty,uuid"`
	Date     string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	Limit    int    `form:"limit" binding:"omitempty,gte=1"`
}

func (q ListReportsQuery) toFilter() (funnel.ReportFilter, error) {
	filter := funnel.ReportFilter{Limit: q.Limit}
	if q.FunnelID != "" {
		id, err := uuid.Parse(q.FunnelID)
		if err != nil {
			return funnel.ReportFilter{}, fmt.Errorf("funnel_id: %w", err)
		}
		filter.FunnelID = &id
	}
	if q.Date != "" {
		day, err := time.ParseInLocation(time.DateOnly, q.Date, time.UTC)
		if err != nil {
			return funnel.ReportFilter{}, fmt.Errorf("date: %w", err)
		}
		filter.Date = &day
	}
	return filter, nil
}

func toFunnelResponse(s appfunnel.FunnelSummary) FunnelResponse {
	return FunnelResponse(s)
}

func toStageResponses(records []funnel.StageRecord) []StageResponse {
	out := make([]StageResponse, 0, len(records))
	for _, r := range records {
		out = append(out, StageResponse{
			ID:                r.ID,
			StageName:         r.StageName,
			Label:             r.StageName.Label(),
			LeadCount:         r.LeadCount,
			LeadCountDisplay:  dto.FormatCount(r.LeadCount),
			TotalValue:        r.TotalValue,
			TotalValueDisplay: dto.FormatBRL(r.TotalValue),
			Source:            r.Source,
		})
	}
	return out
}

func toMetricsResponse(m funnel.PerformanceMetrics) MetricsResponse {
	return MetricsResponse{
		ConversionRate:        m.ConversionRate,
		ConversionRateDisplay: dto.FormatPercent(m.ConversionRate),
		ClosedRevenue:         m.ClosedRevenue,
		ClosedRevenueDisplay:  dto.FormatBRL(m.ClosedRevenue),
		TotalPipeline:         m.TotalPipeline,
		TotalPipelineDisplay:  dto.FormatBRL(m.TotalPipeline),
		AverageTicket:         m.AverageTicket,
		AverageTicketDisplay:  dto.FormatBRL(m.AverageTicket),
		ClosedLeads:           m.ClosedLeads,
		EntryLeads:            m.EntryLeads,
	}
}

func toFinancialRowResponse(r funnel.FinancialRow) FinancialRowResponse {
	return FinancialRowResponse{
		StageName:           r.StageName,
		Label:               r.Label,
		LeadCount:           r.LeadCount,
		TotalValue:          r.TotalValue,
		TotalValueDisplay:   dto.FormatBRL(r.TotalValue),
		AverageValue:        r.AverageValue,
		AverageValueDisplay: dto.FormatBRL(r.AverageValue),
	}
}

func toFinancialTableResponse(t funnel.FinancialTable) FinancialTableResponse {
	rows := make([]FinancialRowResponse, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, toFinancialRowResponse(r))
	}
	return FinancialTableResponse{
		Rows:  rows,
		Total: toFinancialRowResponse(t.Total),
	}
}

func toFunnelDetailResponse(d *appfunnel.FunnelDetail) FunnelDetailResponse {
	groups := make([]SourceGroupResponse, 0, len(d.Groups))
	for _, g := range d.Groups {
		groups = append(groups, SourceGroupResponse{
			Key:       g.Column.Key,
			Label:     g.Column.Label,
			Known:     g.Known,
			Stages:    toStageResponses(g.Stages),
			Financial: toFinancialTableResponse(g.Financial),
		})
	}

	unknown := d.UnknownSources
	if unknown == nil {
		unknown = []string{}
	}

	return FunnelDetailResponse{
		Funnel: FunnelResponse{
			ID:       d.Funnel.ID,
			Name:     d.Funnel.Name,
			Type:     d.Funnel.Type,
			Label:    d.Funnel.Type.Label(),
			Position: d.Funnel.Type.Position(),
		},
		Groups:         groups,
		Total:          toStageResponses(d.Total),
		UnknownSources: unknown,
		Metrics:        toMetricsResponse(d.Metrics),
		Financial:      toFinancialTableResponse(d.Financial),
	}
}

func toReportResponse(r funnel.Report, funnelName string, funnelType funnel.FunnelType) ReportResponse {
	return ReportResponse{
		ID:                    r.ID,
		FunnelID:              r.FunnelID,
		FunnelName:            funnelName,
		FunnelType:            funnelType,
		ReportDate:            r.ReportDate,
		ConversionRate:        r.ConversionRate,
		ConversionRateDisplay: dto.FormatPercent(r.ConversionRate),
		ClosedRevenue:         r.ClosedRevenue,
		ClosedRevenueDisplay:  dto.FormatBRL(r.ClosedRevenue),
		TotalPipeline:         r.TotalPipeline,
		TotalPipelineDisplay:  dto.FormatBRL(r.TotalPipeline),
		AverageTicket:         r.AverageTicket,
		AverageTicketDisplay:  dto.FormatBRL(r.AverageTicket),
		CreatedAt:             r.CreatedAt,
	}
}
