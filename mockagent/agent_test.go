package mockagent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikramwani/agentalign/core"
)

func newTestTask(t *testing.T) *core.EvaluationTask {
	t.Helper()
	schema := core.NewBooleanDecisionSchema("approve", "reject")
	task, err := core.NewEvaluationTask("task-1", "moderation", schema, map[string]interface{}{"content": "example", "submitter": "u1"}, "decide compliance")
	require.NoError(t, err)
	return task
}

func newTestRole(t *testing.T) core.AgentRole {
	t.Helper()
	role, err := core.NewAgentRole("advocate", "advocate", "argue for approval")
	require.NoError(t, err)
	return *role
}

func TestAgentEvaluateParsesResponse(t *testing.T) {
	client := NewClient()
	client.SetResponses(`{"decision": true, "confidence": 0.75, "rationale": "looks compliant", "evidence": ["e1", "e2"]}`)

	agent := NewAgent(newTestRole(t), client)
	decision, err := agent.Evaluate(context.Background(), newTestTask(t))
	require.NoError(t, err)

	assert.Equal(t, true, decision.DecisionValue)
	assert.Equal(t, 0.75, decision.Confidence)
	assert.Equal(t, "looks compliant", decision.Rationale)
	assert.Equal(t, []string{"e1", "e2"}, decision.Evidence)
}

func TestAgentEvaluateTransientOnClientError(t *testing.T) {
	client := NewClient()
	client.SetError(errors.New("transport down"))

	agent := NewAgent(newTestRole(t), client)
	_, err := agent.Evaluate(context.Background(), newTestTask(t))

	assert.ErrorIs(t, err, core.ErrTransientFailure)
}

func TestAgentEvaluatePermanentOnMalformedJSON(t *testing.T) {
	client := NewClient()
	client.SetResponses(`not json`)

	agent := NewAgent(newTestRole(t), client)
	_, err := agent.Evaluate(context.Background(), newTestTask(t))

	assert.ErrorIs(t, err, core.ErrPermanentFailure)
}

func TestAgentEvaluatePermanentOnSchemaMismatch(t *testing.T) {
	client := NewClient()
	client.SetResponses(`{"decision": "not-a-bool", "confidence": 0.5, "rationale": "x", "evidence": []}`)

	agent := NewAgent(newTestRole(t), client)
	_, err := agent.Evaluate(context.Background(), newTestTask(t))

	assert.ErrorIs(t, err, core.ErrPermanentFailure)
}

func TestAgentBuildPromptIsDeterministicAcrossCalls(t *testing.T) {
	client := NewClient()
	client.SetResponses(
		`{"decision": true, "confidence": 0.6, "rationale": "a", "evidence": []}`,
		`{"decision": true, "confidence": 0.6, "rationale": "a", "evidence": []}`,
	)
	agent := NewAgent(newTestRole(t), client)
	task := newTestTask(t)

	_, err := agent.Evaluate(context.Background(), task)
	require.NoError(t, err)
	firstPrompt := client.LastPrompt

	_, err = agent.Evaluate(context.Background(), task)
	require.NoError(t, err)

	assert.Equal(t, firstPrompt, client.LastPrompt)
}
