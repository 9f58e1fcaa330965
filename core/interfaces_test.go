package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoOpEventSinkDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		NoOpEventSink(EventAlignmentAnalysisStarted, map[string]interface{}{"x": 1})
	})
}

func TestNoOpTelemetryReturnsNoOpSpan(t *testing.T) {
	var telemetry Telemetry = &NoOpTelemetry{}
	ctx, span := telemetry.StartSpan(context.Background(), "op")
	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() {
		span.SetAttribute("k", "v")
		span.RecordError(nil)
		span.End()
	})
	telemetry.RecordMetric("m", 1.0, nil)
}

type fakeMetricsRegistry struct {
	counters int
}

func (f *fakeMetricsRegistry) Counter(name string, labels ...string)                 { f.counters++ }
func (f *fakeMetricsRegistry) Gauge(name string, value float64, labels ...string)    {}
func (f *fakeMetricsRegistry) Histogram(name string, value float64, labels ...string) {}
func (f *fakeMetricsRegistry) EmitWithContext(ctx context.Context, name string, value float64, labels ...string) {
}
func (f *fakeMetricsRegistry) GetBaggage(ctx context.Context) map[string]string { return nil }

func TestMetricsRegistryEnablesExistingLoggers(t *testing.T) {
	t.Cleanup(func() { SetMetricsRegistry(nil) })

	logger := NewProductionLogger(LoggingConfig{Level: "info", Format: "text"}, DevelopmentConfig{}, "test-service")
	assert.False(t, logger.metricsEnabled)

	registry := &fakeMetricsRegistry{}
	SetMetricsRegistry(registry)

	assert.True(t, logger.metricsEnabled)
	assert.Equal(t, registry, GetGlobalMetricsRegistry())
}
