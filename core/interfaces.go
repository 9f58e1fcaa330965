package core

import (
	"context"
	"sync"
)

// Logger is the minimal structured logging interface used throughout the
// evaluation core.
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Debug(msg string, fields map[string]interface{})

	InfoWithContext(ctx context.Context, msg string, fields map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, fields map[string]interface{})
	DebugWithContext(ctx context.Context, msg string, fields map[string]interface{})
}

// ComponentAwareLogger extends Logger with component context support, so
// different packages can tag their log lines while sharing one base
// configuration.
//
// Component naming convention:
//   - "evalcore/orchestrator" - fan-out/fan-in agent execution
//   - "evalcore/alignment"    - alignment analysis and resolution
//   - "evalcore/hitl"         - human-in-the-loop escalation
//   - "agent/<name>"          - individual agent implementations
type ComponentAwareLogger interface {
	Logger
	WithComponent(component string) Logger
}

// Telemetry is the optional tracing/metrics integration point.
type Telemetry interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
	RecordMetric(name string, value float64, labels map[string]string)
}

// Span represents a telemetry span.
type Span interface {
	End()
	SetAttribute(key string, value interface{})
	RecordError(err error)
}

// AIClient is the minimal LLM transport contract a reference agent can use to
// call out for a decision. Concrete provider wiring is out of scope for the
// core; only the interface lives here, and a mock implementation lives in
// package mockagent.
type AIClient interface {
	GenerateResponse(ctx context.Context, prompt string, options *AIOptions) (*AIResponse, error)
}

// AIOptions configures a single AIClient call.
type AIOptions struct {
	Model        string
	Temperature  float32
	MaxTokens    int
	SystemPrompt string
}

// AIResponse is the result of an AIClient call.
type AIResponse struct {
	Content string
	Model   string
	Usage   TokenUsage
}

// TokenUsage reports token accounting for an AIResponse.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// EventSink receives the closed set of evaluation lifecycle events (see
// EventXxx constants in constants.go) with a structured payload. Every
// component calls its sink unconditionally; whether the call does anything
// observable (log, span, metric, nothing) is the sink implementation's
// choice.
type EventSink func(event string, payload map[string]interface{})

// NoOpEventSink discards every event.
func NoOpEventSink(event string, payload map[string]interface{}) {}

// Default no-op implementations.

// NoOpLogger discards every log line.
type NoOpLogger struct{}

func (n *NoOpLogger) Info(msg string, fields map[string]interface{})  {}
func (n *NoOpLogger) Error(msg string, fields map[string]interface{}) {}
func (n *NoOpLogger) Warn(msg string, fields map[string]interface{})  {}
func (n *NoOpLogger) Debug(msg string, fields map[string]interface{}) {}

func (n *NoOpLogger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
}
func (n *NoOpLogger) ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
}
func (n *NoOpLogger) WarnWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
}
func (n *NoOpLogger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
}

// NoOpTelemetry discards spans and metrics.
type NoOpTelemetry struct{}

func (n *NoOpTelemetry) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return ctx, &NoOpSpan{}
}

func (n *NoOpTelemetry) RecordMetric(name string, value float64, labels map[string]string) {}

// NoOpSpan discards attributes and errors.
type NoOpSpan struct{}

func (n *NoOpSpan) End()                                       {}
func (n *NoOpSpan) SetAttribute(key string, value interface{}) {}
func (n *NoOpSpan) RecordError(err error)                      {}

// ============================================================================
// Weak-coupling registry for metrics, so the telemetry package can enable
// metrics emission on loggers created by core.NewConfig without an import
// cycle back from core to telemetry.
// ============================================================================

// MetricsRegistry enables the telemetry package to register itself with
// core without introducing a circular import.
type MetricsRegistry interface {
	Counter(name string, labels ...string)
	Gauge(name string, value float64, labels ...string)
	Histogram(name string, value float64, labels ...string)
	EmitWithContext(ctx context.Context, name string, value float64, labels ...string)
	GetBaggage(ctx context.Context) map[string]string
}

var globalMetricsRegistry MetricsRegistry

// SetMetricsRegistry allows the telemetry package to register itself once
// OTel wiring is initialized.
func SetMetricsRegistry(registry MetricsRegistry) {
	globalMetricsRegistry = registry
	enableMetricsOnExistingLoggers()
}

// GetGlobalMetricsRegistry returns the registered metrics registry, or nil
// if telemetry has not registered one.
func GetGlobalMetricsRegistry() MetricsRegistry {
	return globalMetricsRegistry
}

var (
	createdLoggers []*ProductionLogger
	loggersMutex   sync.RWMutex
)

func trackLogger(logger *ProductionLogger) {
	loggersMutex.Lock()
	defer loggersMutex.Unlock()

	createdLoggers = append(createdLoggers, logger)
	if globalMetricsRegistry != nil {
		logger.EnableMetrics()
	}
}

func enableMetricsOnExistingLoggers() {
	loggersMutex.Lock()
	defer loggersMutex.Unlock()

	for _, logger := range createdLoggers {
		logger.EnableMetrics()
	}
}
