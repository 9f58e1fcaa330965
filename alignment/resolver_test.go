package alignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikramwani/agentalign/core"
)

func TestResolveBooleanWeightedMajority(t *testing.T) {
	resolver := NewResolver()
	task := boolTask(t)
	decisions := []*core.AgentDecision{
		boolDecision(t, "advocate", true, 0.9, "approve", []string{"e1", "e2"}),
		boolDecision(t, "skeptic", false, 0.4, "reject", []string{"e3"}),
	}
	summary := &core.AlignmentSummary{State: core.SoftDisagreement, ConsensusStrength: 0.7}

	decision, confidence, reasoning, evidence := resolver.Resolve(task, decisions, summary, core.NoOpEventSink)

	assert.Equal(t, true, decision)
	assert.Equal(t, 0.7, confidence)
	assert.Contains(t, reasoning, "Boolean decision: true")
	assert.NotEmpty(t, evidence)
}

func TestResolveCategoricalTieBrokenByInputOrder(t *testing.T) {
	resolver := NewResolver()
	categorySchema, err := core.NewCategoricalDecisionSchema([]string{"low", "medium", "high"}, false)
	require.NoError(t, err)
	task, err := core.NewEvaluationTask("t-2", "risk", categorySchema, map[string]interface{}{"x": 1}, "assess risk")
	require.NoError(t, err)

	decisions := []*core.AgentDecision{
		func() *core.AgentDecision {
			d, _ := core.NewAgentDecision("a", "advocate", "medium", 0.5, "rationale a", nil)
			return d
		}(),
		func() *core.AgentDecision {
			d, _ := core.NewAgentDecision("b", "skeptic", "high", 0.5, "rationale b", nil)
			return d
		}(),
	}
	summary := &core.AlignmentSummary{State: core.HardDisagreement, ConsensusStrength: 0.5}

	decision, _, _, _ := resolver.Resolve(task, decisions, summary, core.NoOpEventSink)

	assert.Equal(t, "medium", decision, "equal weighted scores should resolve to the first-seen category")
}

func TestResolveScalarWeightedAverage(t *testing.T) {
	resolver := NewResolver()
	scalarSchema, err := core.NewScalarDecisionSchema(0, 100)
	require.NoError(t, err)
	task, err := core.NewEvaluationTask("t-3", "rating", scalarSchema, map[string]interface{}{"x": 1}, "rate")
	require.NoError(t, err)

	decisions := []*core.AgentDecision{
		func() *core.AgentDecision {
			d, _ := core.NewAgentDecision("a", "advocate", 80.0, 1.0, "high", nil)
			return d
		}(),
		func() *core.AgentDecision {
			d, _ := core.NewAgentDecision("b", "skeptic", 20.0, 1.0, "low", nil)
			return d
		}(),
	}
	summary := &core.AlignmentSummary{State: core.HardDisagreement, ConsensusStrength: 0.5}

	decision, _, reasoning, _ := resolver.Resolve(task, decisions, summary, core.NoOpEventSink)

	assert.Equal(t, 50.0, decision)
	assert.Contains(t, reasoning, "50.000")
}

func TestResolveScalarFallsBackToUnweightedMeanWhenAllZeroConfidence(t *testing.T) {
	resolver := NewResolver()
	decisions := []*core.AgentDecision{
		func() *core.AgentDecision {
			d, _ := core.NewAgentDecision("a", "advocate", 10.0, 0.0, "x", nil)
			return d
		}(),
		func() *core.AgentDecision {
			d, _ := core.NewAgentDecision("b", "skeptic", 30.0, 0.0, "y", nil)
			return d
		}(),
	}
	decision, _, _, _ := resolver.resolveScalar(decisions, &core.AlignmentSummary{ConsensusStrength: 0.1})
	assert.Equal(t, 20.0, decision)
}

func TestClampEvidenceAppliesUniformCap(t *testing.T) {
	evidence := []string{"1", "2", "3", "4", "5", "6", "7"}
	assert.Len(t, clampEvidence(evidence), 5)
}

func TestResolveHighestConfidenceFallbackAlsoClamps(t *testing.T) {
	decisions := []*core.AgentDecision{
		func() *core.AgentDecision {
			d, _ := core.NewAgentDecision("a", "advocate", "x", 0.9, "y", []string{"1", "2", "3", "4", "5", "6"})
			return d
		}(),
		func() *core.AgentDecision {
			d, _ := core.NewAgentDecision("b", "skeptic", "z", 0.2, "w", nil)
			return d
		}(),
	}
	resolver := NewResolver()
	_, _, _, evidence := resolver.resolveHighestConfidence(decisions, &core.AlignmentSummary{ConsensusStrength: 0.5})
	assert.Len(t, evidence, 5)
}
