// Package funnel implements the dashboard use cases: reading funnels with
// their aggregated stages, generating report snapshots and asking the
// upstream data source to refresh.
package funnel

import (
	"context"
	"slices"
	"time"

	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/funnel/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DashboardService serves the read side of the dashboard
type DashboardService struct {
	funnelRepo funnel.FunnelRepository
	stageRepo  funnel.StageRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	funnelRepo funnel.FunnelRepository,
	stageRepo funnel.StageRepository,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		funnelRepo: funnelRepo,
		stageRepo:  stageRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// ListFunnels returns the funnels in dashboard order. Funnels of an unknown
// category keep their store order after the known ones.
func (s *DashboardService) ListFunnels(ctx context.Context) ([]FunnelSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "funnel", "list_funnels")
	defer span.End()

	funnels, err := s.funnelRepo.List(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to list funnels", zap.Error(err))
		return nil, err
	}

	summaries := make([]FunnelSummary, 0, len(funnels))
	for _, f := range funnels {
		summaries = append(summaries, toFunnelSummary(f))
	}
	slices.SortStableFunc(summaries, func(a, b FunnelSummary) int {
		return dashboardRank(a.Position) - dashboardRank(b.Position)
	})
	return summaries, nil
}

// GetFunnelDetail reads the stages of a funnel and derives the per-source
// columns, the total column, the metrics and the financial table.
func (s *DashboardService) GetFunnelDetail(ctx context.Context, t funnel.FunnelType) (*FunnelDetail, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "funnel", "get_funnel_detail",
		telemetry.SpanAttrFunnelType, t.String(),
	)
	defer span.End()

	if !t.IsValid() {
		telemetry.RecordError(span, funnel.ErrInvalidFunnelType)
		return nil, funnel.ErrInvalidFunnelType
	}

	f, err := s.funnelRepo.FindByType(ctx, t)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	stages, err := s.stageRepo.FindByFunnel(ctx, f.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to load funnel stages",
			zap.String("funnel_type", t.String()),
			zap.Error(err),
		)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrFunnelID, f.ID,
		telemetry.SpanAttrStageCount, len(stages),
	)

	groups, unknown := funnel.ArrangeGroups(f.Type, stages)
	if len(unknown) > 0 {
		s.logger.Debug("Funnel has stages with unknown sources",
			zap.String("funnel_type", t.String()),
			zap.Strings("sources", unknown),
		)
	}

	total := funnel.TotalAcrossSources(stages, s.now())
	return &FunnelDetail{
		Funnel:         *f,
		Groups:         groups,
		Total:          total,
		UnknownSources: unknown,
		Metrics:        funnel.ComputePerformanceMetrics(stages),
		Financial:      funnel.FinancialSummary(total),
	}, nil
}

func dashboardRank(position int) int {
	if position < 0 {
		return len(funnel.AllFunnelTypes)
	}
	return position
}
