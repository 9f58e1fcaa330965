package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvaluationTask(t *testing.T) {
	schema := NewBooleanDecisionSchema("", "")

	t.Run("valid", func(t *testing.T) {
		task, err := NewEvaluationTask("t-1", "moderation", schema, map[string]interface{}{"k": "v"}, "decide")
		require.NoError(t, err)
		assert.Equal(t, "t-1", task.TaskID)
		assert.NotNil(t, task.Metadata)
	})

	t.Run("trims whitespace", func(t *testing.T) {
		task, err := NewEvaluationTask("  t-1  ", " moderation ", schema, map[string]interface{}{"k": "v"}, " decide ")
		require.NoError(t, err)
		assert.Equal(t, "t-1", task.TaskID)
		assert.Equal(t, "moderation", task.TaskType)
		assert.Equal(t, "decide", task.EvaluationCriteria)
	})

	cases := []struct {
		name    string
		taskID  string
		typ     string
		ctx     map[string]interface{}
		crit    string
		schema  DecisionSchema
	}{
		{"empty task id", "", "t", map[string]interface{}{"a": 1}, "c", schema},
		{"empty task type", "id", "", map[string]interface{}{"a": 1}, "c", schema},
		{"empty criteria", "id", "t", map[string]interface{}{"a": 1}, "", schema},
		{"nil schema", "id", "t", map[string]interface{}{"a": 1}, "c", nil},
		{"empty context", "id", "t", map[string]interface{}{}, "c", schema},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewEvaluationTask(tc.taskID, tc.typ, tc.schema, tc.ctx, tc.crit)
			assert.ErrorIs(t, err, ErrInvalidTask)
		})
	}
}

func TestNewAgentRole(t *testing.T) {
	t.Run("valid with defaults", func(t *testing.T) {
		role, err := NewAgentRole("advocate", "advocate", "argue for approval")
		require.NoError(t, err)
		assert.Equal(t, 500, role.MaxTokens)
		assert.Equal(t, float32(0.1), role.Temperature)
	})

	t.Run("rejects invalid characters", func(t *testing.T) {
		_, err := NewAgentRole("bad name!", "advocate", "x")
		assert.ErrorIs(t, err, ErrInvalidTask)
	})

	t.Run("allows underscores and hyphens", func(t *testing.T) {
		_, err := NewAgentRole("domain_expert-2", "domain_expert", "x")
		require.NoError(t, err)
	})

	t.Run("rejects blank fields", func(t *testing.T) {
		_, err := NewAgentRole("", "advocate", "x")
		assert.ErrorIs(t, err, ErrInvalidTask)
		_, err = NewAgentRole("name", "", "x")
		assert.ErrorIs(t, err, ErrInvalidTask)
		_, err = NewAgentRole("name", "advocate", "")
		assert.ErrorIs(t, err, ErrInvalidTask)
	})
}

func TestNewAgentDecision(t *testing.T) {
	t.Run("valid, drops blank evidence", func(t *testing.T) {
		d, err := NewAgentDecision("advocate", "advocate", true, 0.8, "looks fine", []string{"e1", "  ", "", "e2"})
		require.NoError(t, err)
		assert.Equal(t, []string{"e1", "e2"}, d.Evidence)
	})

	t.Run("rejects out-of-range confidence", func(t *testing.T) {
		_, err := NewAgentDecision("advocate", "advocate", true, 1.5, "x", nil)
		assert.ErrorIs(t, err, ErrInvalidTask)
		_, err = NewAgentDecision("advocate", "advocate", true, -0.1, "x", nil)
		assert.ErrorIs(t, err, ErrInvalidTask)
	})

	t.Run("rejects blank rationale", func(t *testing.T) {
		_, err := NewAgentDecision("advocate", "advocate", true, 0.5, "", nil)
		assert.ErrorIs(t, err, ErrInvalidTask)
	})
}

func TestHITLRequestValidate(t *testing.T) {
	decisions := []*AgentDecision{
		{AgentName: "advocate"},
		{AgentName: "skeptic"},
	}

	t.Run("valid", func(t *testing.T) {
		req := &HITLRequest{
			AlignmentScore:   0.4,
			EscalationReason: ReasonHardDisagreement,
			AgentDecisions:   decisions,
			DissentingAgents: []string{"skeptic"},
		}
		assert.True(t, req.Validate())
	})

	t.Run("rejects out-of-range score", func(t *testing.T) {
		req := &HITLRequest{AlignmentScore: 1.2, EscalationReason: ReasonHardDisagreement, AgentDecisions: decisions}
		assert.False(t, req.Validate())
	})

	t.Run("rejects unknown reason", func(t *testing.T) {
		req := &HITLRequest{AlignmentScore: 0.4, EscalationReason: "made_up", AgentDecisions: decisions}
		assert.False(t, req.Validate())
	})

	t.Run("rejects empty decisions", func(t *testing.T) {
		req := &HITLRequest{AlignmentScore: 0.4, EscalationReason: ReasonHardDisagreement}
		assert.False(t, req.Validate())
	})

	t.Run("rejects unknown dissenting agent", func(t *testing.T) {
		req := &HITLRequest{
			AlignmentScore:   0.4,
			EscalationReason: ReasonHardDisagreement,
			AgentDecisions:   decisions,
			DissentingAgents: []string{"nobody"},
		}
		assert.False(t, req.Validate())
	})
}
