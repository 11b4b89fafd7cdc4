package funnel

import (
	"github.com/funnel/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types published by the funnel module
const (
	EventTypeReportGenerated        = "report.generated"
	EventTypeReportGenerationFailed = "report.generation_failed"
	EventTypeRefreshCompleted       = "refresh.completed"
)

// Aggregate types
const (
	AggregateTypeFunnel  = "Funnel"
	AggregateTypeRefresh = "Refresh"
)

// ReportGeneratedEvent is published after a report snapshot was stored
type ReportGeneratedEvent struct {
	shared.BaseDomainEvent
	ReportID       uuid.UUID       `json:"report_id"`
	FunnelType     FunnelType      `json:"funnel_type"`
	ConversionRate decimal.Decimal `json:"conversion_rate"`
	ClosedRevenue  decimal.Decimal `json:"closed_revenue"`
}

// NewReportGeneratedEvent creates a ReportGeneratedEvent
func NewReportGeneratedEvent(f *Funnel, r *Report) *ReportGeneratedEvent {
	return &ReportGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReportGenerated, AggregateTypeFunnel, f.ID),
		ReportID:        r.ID,
		FunnelType:      f.Type,
		ConversionRate:  r.ConversionRate,
		ClosedRevenue:   r.ClosedRevenue,
	}
}

// ReportGenerationFailedEvent is published when a report could not be stored
type ReportGenerationFailedEvent struct {
	shared.BaseDomainEvent
	FunnelType FunnelType `json:"funnel_type"`
	Reason     string     `json:"reason"`
}

// NewReportGenerationFailedEvent creates a ReportGenerationFailedEvent
func NewReportGenerationFailedEvent(funnelID uuid.UUID, t FunnelType, reason string) *ReportGenerationFailedEvent {
	return &ReportGenerationFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReportGenerationFailed, AggregateTypeFunnel, funnelID),
		FunnelType:      t,
		Reason:          reason,
	}
}

// RefreshCompletedEvent is published after every refresh fan-out
type RefreshCompletedEvent struct {
	shared.BaseDomainEvent
	Success   bool     `json:"success"`
	Endpoints int      `json:"endpoints"`
	Failed    []string `json:"failed,omitempty"`
}

// NewRefreshCompletedEvent creates a RefreshCompletedEvent
func NewRefreshCompletedEvent(success bool, endpoints int, failed []string) *RefreshCompletedEvent {
	return &RefreshCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefreshCompleted, AggregateTypeRefresh, uuid.Nil),
		Success:         success,
		Endpoints:       endpoints,
		Failed:          failed,
	}
}
