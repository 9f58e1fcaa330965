package telemetry

import (
	"context"
	"fmt"
	"sync"

	"github.com/vikramwani/agentalign/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// OTelProvider implements core.Telemetry with OpenTelemetry tracing. It is
// the evaluation core's only tracing integration point: the orchestrator
// starts one span per evaluation and one per agent attempt through it.
//
// Two exporters are supported, selected by TelemetryConfig.Provider:
//   - "otlp" exports spans via OTLP/gRPC to a collector endpoint
//   - "stdout" prints spans to stdout, for local runs and examples
type OTelProvider struct {
	tracer        trace.Tracer
	traceProvider *sdktrace.TracerProvider
	shutdownOnce  sync.Once
	shutdown      bool
	mu            sync.RWMutex
}

// NewOTelProvider creates an OTelProvider from a TelemetryConfig. An empty
// Endpoint with Provider "otlp" falls back to localhost:4317.
func NewOTelProvider(serviceName string, cfg core.TelemetryConfig) (*OTelProvider, error) {
	if serviceName == "" {
		return nil, fmt.Errorf("telemetry: service name cannot be empty")
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
		semconv.ServiceVersionKey.String("1.0.0"),
	)

	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.Provider {
	case "stdout", "":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		exporter, err = otlptracegrpc.New(context.Background(),
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to create span exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &OTelProvider{
		tracer:        tp.Tracer("evalcore"),
		traceProvider: tp,
	}, nil
}

// StartSpan implements core.Telemetry.
func (o *OTelProvider) StartSpan(ctx context.Context, name string) (context.Context, core.Span) {
	o.mu.RLock()
	shutdown := o.shutdown
	o.mu.RUnlock()
	if shutdown || o.tracer == nil {
		return ctx, &core.NoOpSpan{}
	}

	ctx, span := o.tracer.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

// RecordMetric implements core.Telemetry. Tracing-only providers record
// each metric as a short-lived span named "metric.<name>" carrying the value
// and labels as attributes, rather than through a separate metric pipeline,
// since the evaluation core's DOMAIN STACK wires only the trace exporters.
func (o *OTelProvider) RecordMetric(name string, value float64, labels map[string]string) {
	o.mu.RLock()
	shutdown := o.shutdown
	o.mu.RUnlock()
	if shutdown || o.tracer == nil {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(labels)+1)
	attrs = append(attrs, attribute.Float64("value", value))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}

	_, span := o.tracer.Start(context.Background(), "metric."+name)
	span.SetAttributes(attrs...)
	span.End()
}

// Shutdown flushes and stops the tracer provider. Idempotent.
func (o *OTelProvider) Shutdown(ctx context.Context) error {
	var shutdownErr error
	o.shutdownOnce.Do(func() {
		o.mu.Lock()
		o.shutdown = true
		o.mu.Unlock()

		if o.traceProvider != nil {
			shutdownErr = o.traceProvider.Shutdown(ctx)
		}
	})
	return shutdownErr
}

// otelSpan wraps an OpenTelemetry span to implement core.Span.
type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() { s.span.End() }

func (s *otelSpan) SetAttribute(key string, value interface{}) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

func (s *otelSpan) RecordError(err error) {
	s.span.RecordError(err)
}
