package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestFunnelMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	m, err := NewFunnelMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.ReportGenerated(ctx, "ads", 12.5)
	m.ReportGenerated(ctx, "eventos", 40)
	m.ReportFailed(ctx, "ads")
	m.RefreshEndpoint(ctx, "POST", true)
	m.RefreshEndpoint(ctx, "GET", false)
	m.RefreshCompleted(ctx, false, 300*time.Millisecond)

	metrics := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, metrics["funnel_reports_generated_total"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["funnel_reports_failed_total"]))
	assert.Equal(t, int64(2), sumOf(t, metrics["funnel_refresh_endpoint_calls_total"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["funnel_refresh_runs_total"]))

	gauge, ok := metrics["funnel_conversion_rate"].Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	assert.Len(t, gauge.DataPoints, 2)

	hist, ok := metrics["funnel_refresh_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestFunnelMetrics_NilMeter(t *testing.T) {
	_, err := NewFunnelMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestFunnelMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *FunnelMetrics
	assert.NotPanics(t, func() {
		m.ReportGenerated(context.Background(), "ads", 1)
		m.ReportFailed(context.Background(), "ads")
		m.RefreshEndpoint(context.Background(), "POST", true)
		m.RefreshCompleted(context.Background(), true, time.Second)
	})
}
