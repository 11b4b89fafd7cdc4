package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	appfunnel "github.com/funnel/backend/internal/application/funnel"
	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/funnel/backend/internal/infrastructure/persistence"
	"github.com/funnel/backend/internal/infrastructure/refresh"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockDashboard struct {
	mock.Mock
}

func (m *mockDashboard) ListFunnels(ctx context.Context) ([]appfunnel.FunnelSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appfunnel.FunnelSummary), args.Error(1)
}

func (m *mockDashboard) GetFunnelDetail(ctx context.Context, t funnel.FunnelType) (*appfunnel.FunnelDetail, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfunnel.FunnelDetail), args.Error(1)
}

type mockReports struct {
	mock.Mock
}

func (m *mockReports) GenerateReport(ctx context.Context, t funnel.FunnelType, key string) (*appfunnel.GeneratedReport, error) {
	args := m.Called(ctx, t, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfunnel.GeneratedReport), args.Error(1)
}

func (m *mockReports) ListReports(ctx context.Context, filter funnel.ReportFilter) ([]funnel.ReportView, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]funnel.ReportView), args.Error(1)
}

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) TriggerRefresh(ctx context.Context) (*refresh.Result, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*refresh.Result), args.Error(1)
}

type mockProber struct {
	mock.Mock
}

func (m *mockProber) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockProber) Stats() (persistence.ConnectionStats, error) {
	args := m.Called()
	return args.Get(0).(persistence.ConnectionStats), args.Error(1)
}

// envelope mirrors dto.Response with a raw payload for typed decoding
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
		Details   []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total int `json:"total"`
		Limit int `json:"limit"`
	} `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}
