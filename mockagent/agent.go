package mockagent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/vikramwani/agentalign/core"
)

// rawDecision is the fixed JSON shape a mockagent.Agent expects back from
// its core.AIClient. It is a reference contract, not a general-purpose LLM
// response parser: a production agent would likely support provider-specific
// structured output modes instead of a single fixed schema.
type rawDecision struct {
	Decision  interface{} `json:"decision"`
	Confidence float64    `json:"confidence"`
	Rationale string      `json:"rationale"`
	Evidence  []string    `json:"evidence"`
}

// Agent is a reference core.Agent implementation that prompts an
// core.AIClient with the task's context and evaluation criteria, then
// parses a fixed JSON decision shape out of the response. It exists to
// exercise the orchestrator end-to-end without a real LLM integration; see
// DESIGN.md for why production provider wiring is out of scope.
type Agent struct {
	role   core.AgentRole
	client core.AIClient
}

// NewAgent constructs a reference Agent bound to role and client.
func NewAgent(role core.AgentRole, client core.AIClient) *Agent {
	return &Agent{role: role, client: client}
}

// Role returns this agent's configured role.
func (a *Agent) Role() core.AgentRole {
	return a.role
}

// Evaluate builds a prompt from task, calls the bound AIClient, and parses
// the response into an AgentDecision. AIClient errors are classified
// transient (eligible for the orchestrator's retry policy); a malformed
// response is classified permanent, since retrying an unparseable answer
// from the same prompt would just reproduce it.
func (a *Agent) Evaluate(ctx context.Context, task *core.EvaluationTask) (*core.AgentDecision, error) {
	prompt := a.buildPrompt(task)

	response, err := a.client.GenerateResponse(ctx, prompt, &core.AIOptions{
		Model:       "mock-model",
		Temperature: a.role.Temperature,
		MaxTokens:   a.role.MaxTokens,
		SystemPrompt: a.role.Instruction,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", a.role.Name, core.ErrTransientFailure, err)
	}

	var raw rawDecision
	if err := json.Unmarshal([]byte(response.Content), &raw); err != nil {
		return nil, fmt.Errorf("%s: %w: unparseable decision response: %v", a.role.Name, core.ErrPermanentFailure, err)
	}

	if !task.DecisionSchema.Validate(raw.Decision) {
		return nil, fmt.Errorf("%s: %w: decision value does not conform to task schema", a.role.Name, core.ErrPermanentFailure)
	}

	confidence := task.DecisionSchema.NormalizeConfidence(raw.Confidence)

	decision, err := core.NewAgentDecision(a.role.Name, a.role.RoleType, raw.Decision, confidence, raw.Rationale, raw.Evidence)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", a.role.Name, core.ErrPermanentFailure, err)
	}

	return decision, nil
}

// buildPrompt formats the task's context and criteria generically, without
// domain-specific assumptions, matching the original framework's
// _format_task_inputs approach.
func (a *Agent) buildPrompt(task *core.EvaluationTask) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Role: %s (%s)\n", a.role.Name, a.role.RoleType)
	fmt.Fprintf(&b, "Instruction: %s\n\n", a.role.Instruction)
	fmt.Fprintf(&b, "Evaluation criteria: %s\n\n", task.EvaluationCriteria)

	keys := make([]string, 0, len(task.Context))
	for key := range task.Context {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	b.WriteString("Context:\n")
	for _, key := range keys {
		fmt.Fprintf(&b, "%s: %v\n", key, task.Context[key])
	}

	b.WriteString("\nRespond with JSON: {\"decision\": ..., \"confidence\": 0.0-1.0, \"rationale\": \"...\", \"evidence\": [\"...\"]}")

	return b.String()
}
