package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameworkErrorMessage(t *testing.T) {
	t.Run("op and underlying error", func(t *testing.T) {
		err := NewFrameworkError("alignment.Analyze", KindInsufficientAgents, ErrInsufficientAgents)
		assert.Contains(t, err.Error(), "alignment.Analyze")
		assert.Contains(t, err.Error(), ErrInsufficientAgents.Error())
		assert.True(t, errors.Is(err, ErrInsufficientAgents))
	})

	t.Run("op, id and underlying error", func(t *testing.T) {
		err := &FrameworkError{Op: "orchestrator.Evaluate", ID: "task-1", Kind: KindTransientFailure, Err: ErrTransientFailure}
		assert.Contains(t, err.Error(), "[task-1]")
	})

	t.Run("message only", func(t *testing.T) {
		err := &FrameworkError{Message: "something went wrong"}
		assert.Equal(t, "something went wrong", err.Error())
	})

	t.Run("kind fallback", func(t *testing.T) {
		err := &FrameworkError{Kind: KindInvalidTask}
		assert.Equal(t, "invalid_task error", err.Error())
	})
}

func TestOrchestratorErrorMessage(t *testing.T) {
	err := &OrchestratorError{
		TaskID: "task-1",
		Err:    errors.New("all agents failed"),
		Failures: []AgentFailure{
			{AgentName: "advocate", Err: errors.New("timeout")},
			{AgentName: "skeptic", Err: errors.New("malformed response")},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "task-1")
	assert.Contains(t, msg, "advocate: timeout")
	assert.Contains(t, msg, "skeptic: malformed response")
	assert.Equal(t, KindOrchestratorFailure, err.Kind())
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsTransient(ErrTransientFailure))
	assert.True(t, IsRetryable(ErrTransientFailure))
	assert.False(t, IsTransient(ErrPermanentFailure))

	assert.True(t, IsPermanent(ErrPermanentFailure))
	assert.False(t, IsPermanent(ErrTransientFailure))

	assert.True(t, IsConfigurationError(ErrInvalidSchema))
	assert.True(t, IsConfigurationError(ErrInvalidTask))
	assert.False(t, IsConfigurationError(ErrTransientFailure))
}
