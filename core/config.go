package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Thresholds (C8) holds every configurable cutoff the alignment analyser and
// resolver use to turn raw agent decisions into a deterministic
// AlignmentState. Defaults mirror the original Python framework's
// AlignmentThresholds defaults.
type Thresholds struct {
	SoftDisagreementConfidenceSpread float64 `env:"EVALCORE_SOFT_DISAGREEMENT_SPREAD" default:"0.2" yaml:"soft_disagreement_confidence_spread"`
	HardDisagreementConfidenceSpread float64 `env:"EVALCORE_HARD_DISAGREEMENT_SPREAD" default:"0.4" yaml:"hard_disagreement_confidence_spread"`
	InsufficientSignalAvgConfidence  float64 `env:"EVALCORE_INSUFFICIENT_SIGNAL_AVG_CONFIDENCE" default:"0.5" yaml:"insufficient_signal_avg_confidence"`
	MinConfidenceForConsensus        float64 `env:"EVALCORE_MIN_CONFIDENCE_FOR_CONSENSUS" default:"0.7" yaml:"min_confidence_for_consensus"`
	ScalarDecisionToleranceRatio     float64 `env:"EVALCORE_SCALAR_TOLERANCE_RATIO" default:"0.1" yaml:"scalar_decision_tolerance_ratio"`
	ReasoningOverlapThreshold        float64 `env:"EVALCORE_REASONING_OVERLAP_THRESHOLD" default:"0.3" yaml:"reasoning_overlap_threshold"`
	// EvidenceConsistencyThreshold was hardcoded at 0.5 in the framework this
	// was distilled from; it is configurable here (see DESIGN.md's Open
	// Question decision) but keeps the same default.
	EvidenceConsistencyThreshold float64 `env:"EVALCORE_EVIDENCE_CONSISTENCY_THRESHOLD" default:"0.5" yaml:"evidence_consistency_threshold"`
}

// DefaultThresholds returns the framework's historical default cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SoftDisagreementConfidenceSpread: 0.2,
		HardDisagreementConfidenceSpread: 0.4,
		InsufficientSignalAvgConfidence:  0.5,
		MinConfidenceForConsensus:        0.7,
		ScalarDecisionToleranceRatio:     0.1,
		ReasoningOverlapThreshold:        0.3,
		EvidenceConsistencyThreshold:     0.5,
	}
}

// LoggingConfig controls the ambient ProductionLogger's output shape.
type LoggingConfig struct {
	Level  string `env:"EVALCORE_LOG_LEVEL" default:"info" yaml:"level"`
	Format string `env:"EVALCORE_LOG_FORMAT" default:"text" yaml:"format"`
}

// TelemetryConfig controls the optional OTel wiring.
type TelemetryConfig struct {
	Enabled       bool   `env:"EVALCORE_ENABLE_TRACING" default:"false" yaml:"enabled"`
	EnableMetrics bool   `env:"EVALCORE_ENABLE_METRICS" default:"false" yaml:"enable_metrics"`
	Endpoint      string `env:"EVALCORE_OTEL_ENDPOINT" default:"" yaml:"endpoint"`
	Provider      string `env:"EVALCORE_OTEL_PROVIDER" default:"stdout" yaml:"provider"`
}

// DevelopmentConfig toggles development-mode conveniences (verbose debug
// output). Log format is chosen by LoggingConfig.Format, not by this flag.
type DevelopmentConfig struct {
	Enabled bool `env:"EVALCORE_DEV_MODE" default:"false" yaml:"enabled"`
}

// OrchestratorConfig bundles the alignment Thresholds with the C5
// orchestrator's own knobs (retry budget, per-agent timeout, concurrency
// cap, HITL enablement) plus the ambient logging/telemetry/development
// sub-configs. It is assembled through the same three-layer priority the
// teacher's core.Config uses: defaults, then environment variables, then
// functional options.
type OrchestratorConfig struct {
	MaxRetries     int           `env:"EVALCORE_MAX_RETRIES" default:"3" yaml:"max_retries"`
	AgentTimeout   time.Duration `env:"EVALCORE_AGENT_TIMEOUT_SECONDS" default:"30" yaml:"agent_timeout_seconds"`
	EnableHITL     bool          `env:"EVALCORE_ENABLE_HITL" default:"true" yaml:"enable_hitl"`
	ConcurrencyCap int           `env:"EVALCORE_CONCURRENCY_CAP" default:"0" yaml:"concurrency_cap"`

	Thresholds  Thresholds        `yaml:"thresholds"`
	Logging     LoggingConfig     `yaml:"logging"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Development DevelopmentConfig `yaml:"development"`

	logger Logger
}

// Option mutates an OrchestratorConfig during NewConfig; an error aborts
// construction.
type Option func(*OrchestratorConfig) error

// DefaultOrchestratorConfig returns the config layer's base defaults before
// environment variables or functional options are applied.
func DefaultOrchestratorConfig() *OrchestratorConfig {
	return &OrchestratorConfig{
		MaxRetries:     3,
		AgentTimeout:   30 * time.Second,
		EnableHITL:     true,
		ConcurrencyCap: 0,
		Thresholds:     DefaultThresholds(),
		Logging:        LoggingConfig{Level: "info", Format: "text"},
		Telemetry:      TelemetryConfig{Provider: "stdout"},
	}
}

// LoadFromEnv overlays environment variables on top of cfg's current values.
// Unset or unparsable variables leave the existing value untouched.
func (c *OrchestratorConfig) LoadFromEnv() error {
	if v := os.Getenv(EnvMaxRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv(EnvAgentTimeout); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.AgentTimeout = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv(EnvEnableHITL); v != "" {
		c.EnableHITL = parseBool(v, c.EnableHITL)
	}
	if v := os.Getenv(EnvConcurrencyCap); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ConcurrencyCap = n
		}
	}

	if v := os.Getenv(EnvSoftDisagreementSpread); v != "" {
		parseFloatInto(&c.Thresholds.SoftDisagreementConfidenceSpread, v)
	}
	if v := os.Getenv(EnvHardDisagreementSpread); v != "" {
		parseFloatInto(&c.Thresholds.HardDisagreementConfidenceSpread, v)
	}
	if v := os.Getenv(EnvInsufficientSignalAvg); v != "" {
		parseFloatInto(&c.Thresholds.InsufficientSignalAvgConfidence, v)
	}
	if v := os.Getenv(EnvMinConfidenceConsensus); v != "" {
		parseFloatInto(&c.Thresholds.MinConfidenceForConsensus, v)
	}
	if v := os.Getenv(EnvScalarToleranceRatio); v != "" {
		parseFloatInto(&c.Thresholds.ScalarDecisionToleranceRatio, v)
	}
	if v := os.Getenv(EnvReasoningOverlap); v != "" {
		parseFloatInto(&c.Thresholds.ReasoningOverlapThreshold, v)
	}
	if v := os.Getenv(EnvEvidenceConsistency); v != "" {
		parseFloatInto(&c.Thresholds.EvidenceConsistencyThreshold, v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvDevMode); v != "" {
		c.Development.Enabled = parseBool(v, c.Development.Enabled)
	}
	if v := os.Getenv(EnvOTELEndpoint); v != "" {
		c.Telemetry.Endpoint = v
	}
	if v := os.Getenv(EnvOTELProvider); v != "" {
		c.Telemetry.Provider = v
	}
	if v := os.Getenv(EnvEnableTracing); v != "" {
		c.Telemetry.Enabled = parseBool(v, c.Telemetry.Enabled)
	}
	if v := os.Getenv(EnvEnableMetrics); v != "" {
		c.Telemetry.EnableMetrics = parseBool(v, c.Telemetry.EnableMetrics)
	}

	return nil
}

// LoadFromFile overlays a YAML config file on top of cfg.
func (c *OrchestratorConfig) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

// Validate checks invariants NewConfig must not let through silently.
func (c *OrchestratorConfig) Validate() error {
	if c.MaxRetries < 1 || c.MaxRetries > 10 {
		return &FrameworkError{Op: "config.Validate", Kind: KindInvalidTask, Message: "max_retries must be in [1, 10]", Err: ErrInvalidConfig}
	}
	if c.AgentTimeout <= 0 {
		return &FrameworkError{Op: "config.Validate", Kind: KindInvalidTask, Message: "agent timeout must be positive", Err: ErrInvalidConfig}
	}
	if c.ConcurrencyCap < 0 {
		return &FrameworkError{Op: "config.Validate", Kind: KindInvalidTask, Message: "concurrency cap cannot be negative", Err: ErrInvalidConfig}
	}
	for name, v := range map[string]float64{
		"soft_disagreement_confidence_spread": c.Thresholds.SoftDisagreementConfidenceSpread,
		"hard_disagreement_confidence_spread": c.Thresholds.HardDisagreementConfidenceSpread,
		"insufficient_signal_avg_confidence":  c.Thresholds.InsufficientSignalAvgConfidence,
		"min_confidence_for_consensus":        c.Thresholds.MinConfidenceForConsensus,
		"reasoning_overlap_threshold":         c.Thresholds.ReasoningOverlapThreshold,
		"evidence_consistency_threshold":      c.Thresholds.EvidenceConsistencyThreshold,
	} {
		if v < 0.0 || v > 1.0 {
			return &FrameworkError{Op: "config.Validate", Kind: KindInvalidTask, Message: fmt.Sprintf("%s must be in [0.0, 1.0]", name), Err: ErrInvalidConfig}
		}
	}
	if c.Thresholds.ScalarDecisionToleranceRatio < 0.0 {
		return &FrameworkError{Op: "config.Validate", Kind: KindInvalidTask, Message: "scalar_decision_tolerance_ratio cannot be negative", Err: ErrInvalidConfig}
	}
	return nil
}

// ErrInvalidConfig is the sentinel FrameworkError.Err for configuration
// validation failures.
var ErrInvalidConfig = fmt.Errorf("invalid configuration")

// NewConfig assembles an OrchestratorConfig following the three-layer
// priority defaults < environment variables < functional options, then
// attaches a ProductionLogger if none was supplied and validates the result.
func NewConfig(opts ...Option) (*OrchestratorConfig, error) {
	cfg := DefaultOrchestratorConfig()

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.logger == nil {
		cfg.logger = NewProductionLogger(cfg.Logging, cfg.Development, "evalcore")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Logger returns the config's attached logger.
func (c *OrchestratorConfig) Logger() Logger {
	return c.logger
}

// Functional options.

func WithMaxRetries(n int) Option {
	return func(c *OrchestratorConfig) error { c.MaxRetries = n; return nil }
}

func WithAgentTimeout(d time.Duration) Option {
	return func(c *OrchestratorConfig) error { c.AgentTimeout = d; return nil }
}

func WithEnableHITL(enabled bool) Option {
	return func(c *OrchestratorConfig) error { c.EnableHITL = enabled; return nil }
}

func WithConcurrencyCap(n int) Option {
	return func(c *OrchestratorConfig) error { c.ConcurrencyCap = n; return nil }
}

func WithThresholds(t Thresholds) Option {
	return func(c *OrchestratorConfig) error { c.Thresholds = t; return nil }
}

func WithLogLevel(level string) Option {
	return func(c *OrchestratorConfig) error { c.Logging.Level = level; return nil }
}

func WithLogFormat(format string) Option {
	return func(c *OrchestratorConfig) error { c.Logging.Format = format; return nil }
}

func WithTelemetry(enabled bool, endpoint string) Option {
	return func(c *OrchestratorConfig) error {
		c.Telemetry.Enabled = enabled
		c.Telemetry.Endpoint = endpoint
		return nil
	}
}

func WithDevelopmentMode(enabled bool) Option {
	return func(c *OrchestratorConfig) error { c.Development.Enabled = enabled; return nil }
}

func WithConfigFile(path string) Option {
	return func(c *OrchestratorConfig) error {
		return c.LoadFromFile(path)
	}
}

func WithLogger(l Logger) Option {
	return func(c *OrchestratorConfig) error { c.logger = l; return nil }
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func parseFloatInto(dst *float64, v string) {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = f
	}
}

// ============================================================================
// ProductionLogger: the ambient Logger/ComponentAwareLogger implementation.
// ============================================================================

// ProductionLogger emits JSON when LoggingConfig.Format is "json" and
// human-readable text otherwise, matching the teacher's
// NewProductionLogger/logEvent split. Development mode only enables debug
// output.
type ProductionLogger struct {
	level          string
	debug          bool
	serviceName    string
	component      string
	format         string
	metricsEnabled bool
}

// NewProductionLogger constructs a ProductionLogger from the ambient logging
// and development config.
func NewProductionLogger(logging LoggingConfig, dev DevelopmentConfig, serviceName string) *ProductionLogger {
	level := strings.ToUpper(logging.Level)
	if level == "" {
		level = "INFO"
	}
	format := logging.Format
	if format == "" {
		format = "text"
	}
	l := &ProductionLogger{
		level:       level,
		debug:       level == "DEBUG" || dev.Enabled,
		serviceName: serviceName,
		format:      format,
	}
	trackLogger(l)
	return l
}

func (l *ProductionLogger) WithComponent(component string) Logger {
	clone := *l
	clone.component = component
	return &clone
}

func (l *ProductionLogger) Info(msg string, fields map[string]interface{})  { l.logEvent("INFO", msg, fields) }
func (l *ProductionLogger) Error(msg string, fields map[string]interface{}) { l.logEvent("ERROR", msg, fields) }
func (l *ProductionLogger) Warn(msg string, fields map[string]interface{})  { l.logEvent("WARN", msg, fields) }

func (l *ProductionLogger) Debug(msg string, fields map[string]interface{}) {
	if !l.debug {
		return
	}
	l.logEvent("DEBUG", msg, fields)
}

func (l *ProductionLogger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.logEvent("INFO", msg, withTraceID(ctx, fields))
}

func (l *ProductionLogger) ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.logEvent("ERROR", msg, withTraceID(ctx, fields))
}

func (l *ProductionLogger) WarnWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.logEvent("WARN", msg, withTraceID(ctx, fields))
}

func (l *ProductionLogger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	if !l.debug {
		return
	}
	l.logEvent("DEBUG", msg, withTraceID(ctx, fields))
}

func withTraceID(ctx context.Context, fields map[string]interface{}) map[string]interface{} {
	if ctx == nil {
		return fields
	}
	if registry := GetGlobalMetricsRegistry(); registry != nil {
		if baggage := registry.GetBaggage(ctx); len(baggage) > 0 {
			merged := make(map[string]interface{}, len(fields)+len(baggage))
			for k, v := range fields {
				merged[k] = v
			}
			for k, v := range baggage {
				merged[k] = v
			}
			return merged
		}
	}
	return fields
}

func (l *ProductionLogger) logEvent(level, msg string, fields map[string]interface{}) {
	if !l.shouldLog(level) {
		return
	}
	timestamp := time.Now().Format(time.RFC3339)

	if l.format == "json" {
		entry := map[string]interface{}{
			"timestamp": timestamp,
			"level":     level,
			"service":   l.serviceName,
			"message":   msg,
		}
		if l.component != "" {
			entry["component"] = l.component
		}
		for k, v := range fields {
			entry[k] = v
		}
		if data, err := json.Marshal(entry); err == nil {
			fmt.Println(string(data))
		}
		l.emitFrameworkMetric(level)
		return
	}

	var fieldStr strings.Builder
	for k, v := range fields {
		fieldStr.WriteString(fmt.Sprintf(" %s=%v", k, v))
	}
	component := l.component
	if component == "" {
		component = l.serviceName
	}
	fmt.Printf("%s [%s] [%s] %s%s\n", timestamp, level, component, msg, fieldStr.String())

	l.emitFrameworkMetric(level)
}

func (l *ProductionLogger) emitFrameworkMetric(level string) {
	if !l.metricsEnabled {
		return
	}
	registry := GetGlobalMetricsRegistry()
	if registry == nil {
		return
	}
	registry.Counter("evalcore.log.events", "level", level, "service", l.serviceName)
}

// EnableMetrics is called by SetMetricsRegistry once telemetry has
// registered a metrics backend.
func (l *ProductionLogger) EnableMetrics() {
	l.metricsEnabled = true
}

func (l *ProductionLogger) shouldLog(level string) bool {
	levels := map[string]int{"DEBUG": 0, "INFO": 1, "WARN": 2, "ERROR": 3}
	current, ok1 := levels[l.level]
	msgLevel, ok2 := levels[level]
	if !ok1 || !ok2 {
		return true
	}
	return msgLevel >= current
}
