package funnel

import (
	"context"
	"time"

	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/funnel/backend/internal/domain/shared"
	"github.com/funnel/backend/internal/infrastructure/refresh"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockFunnelRepository is a mock implementation of funnel.FunnelRepository
type MockFunnelRepository struct {
	mock.Mock
}

func (m *MockFunnelRepository) FindByType(ctx context.Context, t funnel.FunnelType) (*funnel.Funnel, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*funnel.Funnel), args.Error(1)
}

func (m *MockFunnelRepository) FindByID(ctx context.Context, id uuid.UUID) (*funnel.Funnel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*funnel.Funnel), args.Error(1)
}

func (m *MockFunnelRepository) List(ctx context.Context) ([]funnel.Funnel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]funnel.Funnel), args.Error(1)
}

// MockStageRepository is a mock implementation of funnel.StageRepository
type MockStageRepository struct {
	mock.Mock
}

func (m *MockStageRepository) FindByFunnel(ctx context.Context, funnelID uuid.UUID) ([]funnel.StageRecord, error) {
	args := m.Called(ctx, funnelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]funnel.StageRecord), args.Error(1)
}

// MockReportRepository is a mock implementation of funnel.ReportRepository
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Insert(ctx context.Context, report *funnel.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) List(ctx context.Context, filter funnel.ReportFilter) ([]funnel.ReportView, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]funnel.ReportView), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

// MockRefresher is a mock implementation of Refresher
type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) Trigger(ctx context.Context) (*refresh.Result, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*refresh.Result), args.Error(1)
}

// eventOfType matches a Publish call carrying a single event of the given type
func eventOfType(eventType string) any {
	return mock.MatchedBy(func(events []shared.DomainEvent) bool {
		return len(events) == 1 && events[0].EventType() == eventType
	})
}
