package funnel

import (
	"context"
	"time"

	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/funnel/backend/internal/domain/shared"
	"github.com/funnel/backend/internal/infrastructure/refresh"
	"github.com/funnel/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Refresher fires the upstream refresh webhooks
type Refresher interface {
	Trigger(ctx context.Context) (*refresh.Result, error)
}

// RefreshService runs the "update data" action
type RefreshService struct {
	refresher Refresher
	publisher shared.EventPublisher
	metrics   *telemetry.FunnelMetrics
	logger    *zap.Logger
}

// NewRefreshService creates a new RefreshService. metrics may be nil.
func NewRefreshService(
	refresher Refresher,
	publisher shared.EventPublisher,
	metrics *telemetry.FunnelMetrics,
	logger *zap.Logger,
) *RefreshService {
	return &RefreshService{
		refresher: refresher,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// TriggerRefresh calls every refresh webhook and publishes the outcome. The
// result is returned even on failure so callers can show each endpoint.
func (s *RefreshService) TriggerRefresh(ctx context.Context) (*refresh.Result, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "funnel", "trigger_refresh")
	defer span.End()

	start := time.Now()
	result, err := s.refresher.Trigger(ctx)
	if result == nil {
		result = &refresh.Result{Success: err == nil, Endpoints: []refresh.EndpointResult{}}
	}

	for _, e := range result.Endpoints {
		s.metrics.RefreshEndpoint(ctx, e.Method, e.Success)
	}
	s.metrics.RefreshCompleted(ctx, result.Success, time.Since(start))

	failed := result.FailedURLs()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrEndpointCount, len(result.Endpoints),
		telemetry.SpanAttrFailedCount, len(failed),
	)

	event := funnel.NewRefreshCompletedEvent(result.Success, len(result.Endpoints), failed)
	if s.publisher != nil {
		if pubErr := s.publisher.Publish(ctx, event); pubErr != nil {
			s.logger.Warn("Failed to publish refresh outcome", zap.Error(pubErr))
		}
	}

	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Data refresh failed",
			zap.Int("endpoints", len(result.Endpoints)),
			zap.Strings("failed", failed),
			zap.Error(err),
		)
		return result, err
	}

	s.logger.Info("Data refresh completed", zap.Int("endpoints", len(result.Endpoints)))
	return result, nil
}
