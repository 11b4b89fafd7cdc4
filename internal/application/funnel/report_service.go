package funnel

import (
	"context"
	"errors"
	"time"

	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/funnel/backend/internal/domain/shared"
	"github.com/funnel/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	// DefaultIdempotencyTTL is how long an Idempotency-Key suppresses repeats
	DefaultIdempotencyTTL = 10 * time.Minute
	// DefaultListLimit caps report listings when the caller gives no limit
	DefaultListLimit = 200
)

// ReportServiceConfig tunes report generation and listing
type ReportServiceConfig struct {
	IdempotencyTTL time.Duration
	ListLimit      int
}

// ReportService generates and lists performance snapshots
type ReportService struct {
	funnelRepo  funnel.FunnelRepository
	stageRepo   funnel.StageRepository
	reportRepo  funnel.ReportRepository
	publisher   shared.EventPublisher
	idempotency shared.IdempotencyStore
	metrics     *telemetry.FunnelMetrics
	config      ReportServiceConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewReportService creates a new ReportService. idempotency and metrics may be nil.
func NewReportService(
	funnelRepo funnel.FunnelRepository,
	stageRepo funnel.StageRepository,
	reportRepo funnel.ReportRepository,
	publisher shared.EventPublisher,
	idempotency shared.IdempotencyStore,
	metrics *telemetry.FunnelMetrics,
	config ReportServiceConfig,
	logger *zap.Logger,
) *ReportService {
	if config.IdempotencyTTL <= 0 {
		config.IdempotencyTTL = DefaultIdempotencyTTL
	}
	if config.ListLimit <= 0 {
		config.ListLimit = DefaultListLimit
	}
	return &ReportService{
		funnelRepo:  funnelRepo,
		stageRepo:   stageRepo,
		reportRepo:  reportRepo,
		publisher:   publisher,
		idempotency: idempotency,
		metrics:     metrics,
		config:      config,
		logger:      logger,
		now:         time.Now,
	}
}

// GenerateReport computes the metrics of a funnel from a fresh stage read and
// stores them as a new report. A non-empty idempotencyKey already claimed
// within the TTL yields ErrDuplicate. The insert is attempted once.
func (s *ReportService) GenerateReport(ctx context.Context, t funnel.FunnelType, idempotencyKey string) (*GeneratedReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "funnel", "generate_report",
		telemetry.SpanAttrFunnelType, t.String(),
	)
	defer span.End()

	if !t.IsValid() {
		telemetry.RecordError(span, funnel.ErrInvalidFunnelType)
		return nil, funnel.ErrInvalidFunnelType
	}

	reserved, err := s.reserve(ctx, idempotencyKey)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		result *GeneratedReport
		genErr error
	)
	telemetry.WithProfilingLabels(ctx, []string{"operation", "generate_report", "funnel_type", t.String()}, func(c context.Context) {
		result, genErr = s.generate(c, t)
	})
	if genErr != nil {
		telemetry.RecordError(span, genErr)
		if reserved {
			s.release(ctx, idempotencyKey)
		}
		return nil, genErr
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrFunnelID, result.Funnel.ID,
		telemetry.SpanAttrReportID, result.Report.ID,
	)
	return result, nil
}

func (s *ReportService) generate(ctx context.Context, t funnel.FunnelType) (*GeneratedReport, error) {
	f, err := s.funnelRepo.FindByType(ctx, t)
	if err != nil {
		s.metrics.ReportFailed(ctx, t.String())
		return nil, err
	}

	stages, err := s.stageRepo.FindByFunnel(ctx, f.ID)
	if err != nil {
		s.fail(ctx, f, err)
		return nil, err
	}

	metrics := funnel.ComputePerformanceMetrics(stages)
	report := funnel.NewReport(f.ID, metrics, s.now())

	if err := s.reportRepo.Insert(ctx, report); err != nil {
		s.fail(ctx, f, err)
		return nil, err
	}

	s.publish(ctx, funnel.NewReportGeneratedEvent(f, report))
	s.metrics.ReportGenerated(ctx, t.String(), report.ConversionRate.InexactFloat64())

	s.logger.Info("Report generated",
		zap.String("funnel_type", t.String()),
		zap.String("report_id", report.ID.String()),
		zap.String("conversion_rate", report.ConversionRate.StringFixed(2)),
		zap.Int("stage_count", len(stages)),
	)
	return &GeneratedReport{Funnel: *f, Report: *report}, nil
}

// GenerateAll snapshots every funnel. It keeps going past failures and
// returns how many reports were stored along with the joined errors.
func (s *ReportService) GenerateAll(ctx context.Context) (int, error) {
	funnels, err := s.funnelRepo.List(ctx)
	if err != nil {
		return 0, err
	}

	var (
		generated int
		errs      []error
	)
	for _, f := range funnels {
		if _, err := s.GenerateReport(ctx, f.Type, ""); err != nil {
			errs = append(errs, err)
			continue
		}
		generated++
	}
	return generated, errors.Join(errs...)
}

// ListReports returns stored reports newest first. The limit is capped at
// the configured list limit. Filtering by a funnel that does not exist
// returns ErrFunnelNotFound.
func (s *ReportService) ListReports(ctx context.Context, filter funnel.ReportFilter) ([]funnel.ReportView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "funnel", "list_reports")
	defer span.End()

	if filter.Limit <= 0 || filter.Limit > s.config.ListLimit {
		filter.Limit = s.config.ListLimit
	}

	if filter.FunnelID != nil {
		if _, err := s.funnelRepo.FindByID(ctx, *filter.FunnelID); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	reports, err := s.reportRepo.List(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to list reports", zap.Error(err))
		return nil, err
	}
	return reports, nil
}

func (s *ReportService) reserve(ctx context.Context, key string) (bool, error) {
	if key == "" || s.idempotency == nil {
		return false, nil
	}
	ok, err := s.idempotency.Reserve(ctx, key, s.config.IdempotencyTTL)
	if err != nil {
		// fail open when the store is down
		s.logger.Warn("Idempotency store unavailable, generating without key",
			zap.String("idempotency_key", key),
			zap.Error(err),
		)
		return false, nil
	}
	if !ok {
		return false, shared.ErrDuplicate
	}
	return true, nil
}

func (s *ReportService) release(ctx context.Context, key string) {
	if err := s.idempotency.Release(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Warn("Failed to release idempotency key",
			zap.String("idempotency_key", key),
			zap.Error(err),
		)
	}
}

func (s *ReportService) fail(ctx context.Context, f *funnel.Funnel, cause error) {
	s.logger.Error("Report generation failed",
		zap.String("funnel_type", f.Type.String()),
		zap.Error(cause),
	)
	s.metrics.ReportFailed(ctx, f.Type.String())
	s.publish(ctx, funnel.NewReportGenerationFailedEvent(f.ID, f.Type, cause.Error()))
}

func (s *ReportService) publish(ctx context.Context, event shared.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	}
}
