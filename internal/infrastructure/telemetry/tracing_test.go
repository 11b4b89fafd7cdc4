package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// installRecorder sets a recording global tracer provider for the test
func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value.Emit()
	}
	return m
}

func TestStartServiceSpan(t *testing.T) {
	recorder := installRecorder(t)
	id := uuid.New()

	ctx, span := StartServiceSpan(context.Background(), "funnel", "generate_report",
		SpanAttrFunnelType, "ads",
		SpanAttrFunnelID, id,
		SpanAttrStageCount, 9,
		42, "ignored",
	)
	assert.NotEmpty(t, TraceID(ctx))
	SetAttributes(span, SpanAttrReportID, "r-1")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "funnel.generate_report", spans[0].Name())

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "ads", attrs[SpanAttrFunnelType])
	assert.Equal(t, id.String(), attrs[SpanAttrFunnelID])
	assert.Equal(t, "9", attrs[SpanAttrStageCount])
	assert.Equal(t, "r-1", attrs[SpanAttrReportID])
	assert.Len(t, attrs, 4)
}

func TestRecordError(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartServiceSpan(context.Background(), "funnel", "trigger_refresh")
	RecordError(span, errors.New("webhook down"))
	RecordError(span, nil)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "webhook down", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Equal(t, "AlwaysOffSampler", sampler(0).Description())
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased{0.5}")
}
