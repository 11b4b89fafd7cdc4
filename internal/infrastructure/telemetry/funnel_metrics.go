package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Outcome attribute values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// FunnelMetrics holds the application instruments for reports and refreshes
type FunnelMetrics struct {
	reportsGenerated *Counter
	reportsFailed    *Counter
	conversionRate   *FloatGauge
	refreshRuns      *Counter
	refreshEndpoints *Counter
	refreshDuration  *Histogram
}

// NewFunnelMetrics registers the instruments on meter
func NewFunnelMetrics(meter metric.Meter) (*FunnelMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &FunnelMetrics{}
	var err error

	if m.reportsGenerated, err = NewCounter(meter,
		"funnel_reports_generated_total", "Reports stored", "{reports}"); err != nil {
		return nil, err
	}
	if m.reportsFailed, err = NewCounter(meter,
		"funnel_reports_failed_total", "Report generations that failed", "{reports}"); err != nil {
		return nil, err
	}
	if m.conversionRate, err = NewFloatGauge(meter,
		"funnel_conversion_rate", "Conversion rate of the latest report", "%"); err != nil {
		return nil, err
	}
	if m.refreshRuns, err = NewCounter(meter,
		"funnel_refresh_runs_total", "Refresh fan-outs by overall outcome", "{runs}"); err != nil {
		return nil, err
	}
	if m.refreshEndpoints, err = NewCounter(meter,
		"funnel_refresh_endpoint_calls_total", "Refresh endpoint calls by outcome and method", "{calls}"); err != nil {
		return nil, err
	}
	if m.refreshDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "funnel_refresh_duration_seconds",
		Description: "Wall time of a refresh fan-out",
		Unit:        "s",
		Boundaries:  RefreshDurationBuckets,
	}); err != nil {
		return nil, err
	}

	return m, nil
}

// ReportGenerated counts a stored report and records its conversion rate
func (m *FunnelMetrics) ReportGenerated(ctx context.Context, funnelType string, conversionRate float64) {
	if m == nil {
		return
	}
	m.reportsGenerated.Inc(ctx, AttrFunnelType.String(funnelType))
	m.conversionRate.Record(ctx, conversionRate, AttrFunnelType.String(funnelType))
}

// ReportFailed counts a failed report generation
func (m *FunnelMetrics) ReportFailed(ctx context.Context, funnelType string) {
	if m == nil {
		return
	}
	m.reportsFailed.Inc(ctx, AttrFunnelType.String(funnelType))
}

// RefreshEndpoint counts one endpoint outcome
func (m *FunnelMetrics) RefreshEndpoint(ctx context.Context, method string, success bool) {
	if m == nil {
		return
	}
	m.refreshEndpoints.Inc(ctx, AttrMethod.String(method), AttrOutcome.String(outcome(success)))
}

// RefreshCompleted records a whole fan-out
func (m *FunnelMetrics) RefreshCompleted(ctx context.Context, success bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.refreshRuns.Inc(ctx, AttrOutcome.String(outcome(success)))
	m.refreshDuration.RecordDuration(ctx, elapsed, AttrOutcome.String(outcome(success)))
}

func outcome(success bool) string {
	if success {
		return OutcomeSuccess
	}
	return OutcomeFailure
}
