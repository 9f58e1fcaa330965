package core

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOrchestratorConfig(t *testing.T) {
	cfg := DefaultOrchestratorConfig()

	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.AgentTimeout)
	assert.True(t, cfg.EnableHITL)
	assert.Equal(t, DefaultThresholds(), cfg.Thresholds)
	assert.Equal(t, "stdout", cfg.Telemetry.Provider)
}

func TestNewConfigAppliesOptions(t *testing.T) {
	cfg, err := NewConfig(
		WithMaxRetries(5),
		WithAgentTimeout(10*time.Second),
		WithEnableHITL(false),
		WithConcurrencyCap(4),
	)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.AgentTimeout)
	assert.False(t, cfg.EnableHITL)
	assert.Equal(t, 4, cfg.ConcurrencyCap)
	assert.NotNil(t, cfg.Logger())
}

func TestNewConfigRejectsInvalidMaxRetries(t *testing.T) {
	_, err := NewConfig(WithMaxRetries(0))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewConfig(WithMaxRetries(11))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewConfigRejectsInvalidThresholds(t *testing.T) {
	_, err := NewConfig(WithThresholds(Thresholds{
		SoftDisagreementConfidenceSpread: 1.5,
	}))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadFromEnvOverlaysDefaults(t *testing.T) {
	os.Setenv(EnvMaxRetries, "7")
	os.Setenv(EnvEnableHITL, "false")
	defer os.Unsetenv(EnvMaxRetries)
	defer os.Unsetenv(EnvEnableHITL)

	cfg := DefaultOrchestratorConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 7, cfg.MaxRetries)
	assert.False(t, cfg.EnableHITL)
}

func TestOptionsOverrideEnv(t *testing.T) {
	os.Setenv(EnvMaxRetries, "7")
	defer os.Unsetenv(EnvMaxRetries)

	cfg, err := NewConfig(WithMaxRetries(2))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MaxRetries)
}

func TestWithLoggerIsRespected(t *testing.T) {
	logger := &NoOpLogger{}
	cfg, err := NewConfig(WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, logger, cfg.Logger())
}
