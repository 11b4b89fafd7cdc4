package event

import (
	"context"

	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/funnel/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OutcomeLogger writes every user-visible action outcome to the log
type OutcomeLogger struct {
	logger *zap.Logger
}

// NewOutcomeLogger creates an OutcomeLogger
func NewOutcomeLogger(logger *zap.Logger) *OutcomeLogger {
	return &OutcomeLogger{logger: logger.Named("outcome")}
}

// EventTypes returns the outcome events
func (h *OutcomeLogger) EventTypes() []string {
	return []string{
		funnel.EventTypeReportGenerated,
		funnel.EventTypeReportGenerationFailed,
		funnel.EventTypeRefreshCompleted,
	}
}

// Handle logs the event with its key fields
func (h *OutcomeLogger) Handle(_ context.Context, e shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", e.EventType()),
		zap.String("event_id", e.EventID().String()),
	}

	switch ev := e.(type) {
	case *funnel.ReportGeneratedEvent:
		h.logger.Info("Report generated", append(fields,
			zap.String("funnel_type", string(ev.FunnelType)),
			zap.String("report_id", ev.ReportID.String()),
		)...)
	case *funnel.ReportGenerationFailedEvent:
		h.logger.Warn("Report generation failed", append(fields,
			zap.String("funnel_type", string(ev.FunnelType)),
			zap.String("reason", ev.Reason),
		)...)
	case *funnel.RefreshCompletedEvent:
		if ev.Success {
			h.logger.Info("Data refresh requested", append(fields, zap.Int("endpoints", ev.Endpoints))...)
		} else {
			h.logger.Warn("Data refresh failed", append(fields,
				zap.Int("endpoints", ev.Endpoints),
				zap.Strings("failed", ev.Failed),
			)...)
		}
	default:
		h.logger.Debug("Outcome event", fields...)
	}
	return nil
}

var _ shared.EventHandler = (*OutcomeLogger)(nil)
