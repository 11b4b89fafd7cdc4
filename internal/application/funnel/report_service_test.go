package funnel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/funnel/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type reportFixture struct {
	funnelRepo  *MockFunnelRepository
	stageRepo   *MockStageRepository
	reportRepo  *MockReportRepository
	publisher   *MockEventPublisher
	idempotency *MockIdempotencyStore
	svc         *ReportService
}

func newReportFixture(t *testing.T) *reportFixture {
	f := &reportFixture{
		funnelRepo:  new(MockFunnelRepository),
		stageRepo:   new(MockStageRepository),
		reportRepo:  new(MockReportRepository),
		publisher:   new(MockEventPublisher),
		idempotency: new(MockIdempotencyStore),
	}
	f.svc = NewReportService(f.funnelRepo, f.stageRepo, f.reportRepo, f.publisher, f.idempotency, nil,
		ReportServiceConfig{ListLimit: 50}, zaptest.NewLogger(t))
	f.svc.now = func() time.Time { return time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC) }
	return f
}

func closedSubsetStages(funnelID uuid.UUID) []funnel.StageRecord {
	return []funnel.StageRecord{
		stage(funnelID, funnel.StageContratos, 3, 300, ""),
		stage(funnelID, funnel.StageContratosAssinados, 2, 500, ""),
		stage(funnelID, funnel.StageEmContato, 10, 0, ""),
	}
}

func TestReportService_NewReportService_Defaults(t *testing.T) {
	svc := NewReportService(nil, nil, nil, nil, nil, nil, ReportServiceConfig{}, zaptest.NewLogger(t))

	assert.Equal(t, DefaultIdempotencyTTL, svc.config.IdempotencyTTL)
	assert.Equal(t, DefaultListLimit, svc.config.ListLimit)
}

func TestReportService_GenerateReport(t *testing.T) {
	fx := newReportFixture(t)
	f := newFunnel(funnel.FunnelTypeEventos, "Funil de Eventos")

	fx.funnelRepo.On("FindByType", mock.Anything, funnel.FunnelTypeEventos).Return(f, nil)
	fx.stageRepo.On("FindByFunnel", mock.Anything, f.ID).Return(closedSubsetStages(f.ID), nil)
	fx.reportRepo.On("Insert", mock.Anything, mock.MatchedBy(func(r *funnel.Report) bool {
		return r.FunnelID == f.ID &&
			r.ConversionRate.Equal(decimal.NewFromInt(50)) &&
			r.ClosedRevenue.Equal(decimal.NewFromInt(800)) &&
			r.TotalPipeline.Equal(decimal.NewFromInt(800)) &&
			r.AverageTicket.Equal(decimal.NewFromInt(160))
	})).Return(nil).Once()
	fx.publisher.On("Publish", mock.Anything, eventOfType(funnel.EventTypeReportGenerated)).Return(nil).Once()

	result, err := fx.svc.GenerateReport(context.Background(), funnel.FunnelTypeEventos, "")

	require.NoError(t, err)
	assert.Equal(t, f.ID, result.Funnel.ID)
	assert.Equal(t, f.ID, result.Report.FunnelID)
	assert.Equal(t, 2025, result.Report.ReportDate.Year())
	fx.reportRepo.AssertExpectations(t)
	fx.publisher.AssertExpectations(t)
	fx.idempotency.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything)
}

func TestReportService_GenerateReport_NoEntryStage(t *testing.T) {
	fx := newReportFixture(t)
	f := newFunnel(funnel.FunnelTypeAds, "Funil de ADS")

	fx.funnelRepo.On("FindByType", mock.Anything, funnel.FunnelTypeAds).Return(f, nil)
	fx.stageRepo.On("FindByFunnel", mock.Anything, f.ID).Return([]funnel.StageRecord{
		stage(f.ID, funnel.StageContratos, 3, 300, "meta"),
	}, nil)
	fx.reportRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	fx.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	result, err := fx.svc.GenerateReport(context.Background(), funnel.FunnelTypeAds, "")

	require.NoError(t, err)
	assert.True(t, result.Report.ConversionRate.IsZero())
	assert.True(t, result.Report.AverageTicket.Equal(decimal.NewFromInt(100)))
}

func TestReportService_GenerateReport_InsertFails(t *testing.T) {
	fx := newReportFixture(t)
	f := newFunnel(funnel.FunnelTypeOutbound, "Funil Outbound")
	storeErr := shared.NewStoreError("insert report", errors.New("connection reset"))

	fx.funnelRepo.On("FindByType", mock.Anything, funnel.FunnelTypeOutbound).Return(f, nil)
	fx.stageRepo.On("FindByFunnel", mock.Anything, f.ID).Return(closedSubsetStages(f.ID), nil)
	fx.reportRepo.On("Insert", mock.Anything, mock.Anything).Return(storeErr).Once()
	fx.publisher.On("Publish", mock.Anything, eventOfType(funnel.EventTypeReportGenerationFailed)).Return(nil).Once()
	fx.idempotency.On("Reserve", mock.Anything, "key-1", DefaultIdempotencyTTL).Return(true, nil)
	fx.idempotency.On("Release", mock.Anything, "key-1").Return(nil).Once()

	result, err := fx.svc.GenerateReport(context.Background(), funnel.FunnelTypeOutbound, "key-1")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, shared.ErrStore)
	fx.reportRepo.AssertNumberOfCalls(t, "Insert", 1)
	fx.publisher.AssertExpectations(t)
	fx.idempotency.AssertExpectations(t)
}

func TestReportService_GenerateReport_StageReadFails(t *testing.T) {
	fx := newReportFixture(t)
	f := newFunnel(funnel.FunnelTypeIndicados, "Funil de Indicados")

	fx.funnelRepo.On("FindByType", mock.Anything, funnel.FunnelTypeIndicados).Return(f, nil)
	fx.stageRepo.On("FindByFunnel", mock.Anything, f.ID).Return(nil, shared.NewStoreError("list funnel stages", assert.AnError))
	fx.publisher.On("Publish", mock.Anything, eventOfType(funnel.EventTypeReportGenerationFailed)).Return(nil).Once()

	_, err := fx.svc.GenerateReport(context.Background(), funnel.FunnelTypeIndicados, "")

	assert.ErrorIs(t, err, shared.ErrStore)
	fx.reportRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	fx.publisher.AssertExpectations(t)
}

func TestReportService_GenerateReport_Duplicate(t *testing.T) {
	fx := newReportFixture(t)
	fx.idempotency.On("Reserve", mock.Anything, "key-1", DefaultIdempotencyTTL).Return(false, nil)

	_, err := fx.svc.GenerateReport(context.Background(), funnel.FunnelTypeEventos, "key-1")

	assert.ErrorIs(t, err, shared.ErrDuplicate)
	fx.funnelRepo.AssertNotCalled(t, "FindByType", mock.Anything, mock.Anything)
	fx.idempotency.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestReportService_GenerateReport_IdempotencyStoreDown(t *testing.T) {
	fx := newReportFixture(t)
	f := newFunnel(funnel.FunnelTypeEventos, "Funil de Eventos")

	fx.idempotency.On("Reserve", mock.Anything, "key-1", DefaultIdempotencyTTL).Return(false, errors.New("redis down"))
	fx.funnelRepo.On("FindByType", mock.Anything, funnel.FunnelTypeEventos).Return(f, nil)
	fx.stageRepo.On("FindByFunnel", mock.Anything, f.ID).Return(closedSubsetStages(f.ID), nil)
	fx.reportRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	fx.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	result, err := fx.svc.GenerateReport(context.Background(), funnel.FunnelTypeEventos, "key-1")

	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestReportService_GenerateReport_InvalidType(t *testing.T) {
	fx := newReportFixture(t)

	_, err := fx.svc.GenerateReport(context.Background(), funnel.FunnelType("crm"), "")

	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestReportService_GenerateReport_FunnelNotFound(t *testing.T) {
	fx := newReportFixture(t)
	fx.funnelRepo.On("FindByType", mock.Anything, funnel.FunnelTypeAds).Return(nil, funnel.ErrFunnelNotFound)

	_, err := fx.svc.GenerateReport(context.Background(), funnel.FunnelTypeAds, "")

	assert.ErrorIs(t, err, shared.ErrNotFound)
	fx.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestReportService_GenerateAll(t *testing.T) {
	fx := newReportFixture(t)
	eventos := newFunnel(funnel.FunnelTypeEventos, "Funil de Eventos")
	ads := newFunnel(funnel.FunnelTypeAds, "Funil de ADS")

	fx.funnelRepo.On("List", mock.Anything).Return([]funnel.Funnel{*eventos, *ads}, nil)
	fx.funnelRepo.On("FindByType", mock.Anything, funnel.FunnelTypeEventos).Return(eventos, nil)
	fx.funnelRepo.On("FindByType", mock.Anything, funnel.FunnelTypeAds).Return(ads, nil)
	fx.stageRepo.On("FindByFunnel", mock.Anything, eventos.ID).Return(closedSubsetStages(eventos.ID), nil)
	fx.stageRepo.On("FindByFunnel", mock.Anything, ads.ID).Return(nil, shared.NewStoreError("list funnel stages", assert.AnError))
	fx.reportRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	fx.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	generated, err := fx.svc.GenerateAll(context.Background())

	assert.Equal(t, 1, generated)
	assert.ErrorIs(t, err, shared.ErrStore)
	fx.reportRepo.AssertNumberOfCalls(t, "Insert", 1)
}

func TestReportService_ListReports(t *testing.T) {
	fx := newReportFixture(t)
	funnelID := uuid.New()
	views := []funnel.ReportView{{FunnelName: "Funil de ADS", FunnelType: funnel.FunnelTypeAds}}

	fx.funnelRepo.On("FindByID", mock.Anything, funnelID).Return(newFunnel(funnel.FunnelTypeAds, "Funil de ADS"), nil).Once()
	fx.reportRepo.On("List", mock.Anything, funnel.ReportFilter{FunnelID: &funnelID, Limit: 50}).Return(views, nil).Once()
	fx.reportRepo.On("List", mock.Anything, funnel.ReportFilter{Limit: 10}).Return([]funnel.ReportView{}, nil).Once()

	got, err := fx.svc.ListReports(context.Background(), funnel.ReportFilter{FunnelID: &funnelID, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, views, got)

	got, err = fx.svc.ListReports(context.Background(), funnel.ReportFilter{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, got)

	fx.reportRepo.AssertExpectations(t)
}

func TestReportService_ListReports_UnknownFunnel(t *testing.T) {
	fx := newReportFixture(t)
	funnelID := uuid.New()
	fx.funnelRepo.On("FindByID", mock.Anything, funnelID).Return(nil, funnel.ErrFunnelNotFound)

	got, err := fx.svc.ListReports(context.Background(), funnel.ReportFilter{FunnelID: &funnelID})

	assert.Nil(t, got)
	assert.ErrorIs(t, err, funnel.ErrFunnelNotFound)
	fx.reportRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestReportService_ListReports_StoreError(t *testing.T) {
	fx := newReportFixture(t)
	fx.reportRepo.On("List", mock.Anything, mock.Anything).Return(nil, shared.NewStoreError("list reports", assert.AnError))

	_, err := fx.svc.ListReports(context.Background(), funnel.ReportFilter{})

	assert.ErrorIs(t, err, shared.ErrStore)
}
