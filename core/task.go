package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AlignmentState classifies how well a set of agent decisions agree with one
// another. States are ordered by severity in the GLOSSARY but are compared
// by value, not ordinal, throughout this package.
type AlignmentState string

const (
	FullAlignment       AlignmentState = "full_alignment"
	SoftDisagreement    AlignmentState = "soft_disagreement"
	HardDisagreement    AlignmentState = "hard_disagreement"
	InsufficientSignal  AlignmentState = "insufficient_signal"
)

// EvaluationTask is the domain-agnostic input to a multi-agent evaluation: a
// question, the schema the answer must conform to, and opaque context data
// handed to every agent unchanged.
type EvaluationTask struct {
	TaskID             string
	TaskType           string
	DecisionSchema     DecisionSchema
	Context            map[string]interface{}
	EvaluationCriteria string
	Metadata           map[string]interface{}
}

// NewEvaluationTask validates and constructs an EvaluationTask, trimming
// string fields the way the original framework's field validators do.
func NewEvaluationTask(taskID, taskType string, schema DecisionSchema, context map[string]interface{}, criteria string) (*EvaluationTask, error) {
	taskID = strings.TrimSpace(taskID)
	taskType = strings.TrimSpace(taskType)
	criteria = strings.TrimSpace(criteria)

	if taskID == "" {
		return nil, fmt.Errorf("%w: task_id cannot be empty", ErrInvalidTask)
	}
	if taskType == "" {
		return nil, fmt.Errorf("%w: task_type cannot be empty", ErrInvalidTask)
	}
	if criteria == "" {
		return nil, fmt.Errorf("%w: evaluation_criteria cannot be empty", ErrInvalidTask)
	}
	if schema == nil {
		return nil, fmt.Errorf("%w: decision_schema is required", ErrInvalidTask)
	}
	if len(context) == 0 {
		return nil, fmt.Errorf("%w: context data is required", ErrInvalidTask)
	}

	return &EvaluationTask{
		TaskID:             taskID,
		TaskType:           taskType,
		DecisionSchema:     schema,
		Context:            context,
		EvaluationCriteria: criteria,
		Metadata:           map[string]interface{}{},
	}, nil
}

// AgentRole defines the perspective an agent takes on an evaluation task:
// advocate, skeptic, judge, domain_expert, or a custom role_type.
type AgentRole struct {
	Name           string
	RoleType       string
	Instruction    string
	PromptTemplate string
	MaxTokens      int
	Temperature    float32
	Metadata       map[string]interface{}
}

// NewAgentRole validates and constructs an AgentRole.
func NewAgentRole(name, roleType, instruction string) (*AgentRole, error) {
	name = strings.TrimSpace(name)
	roleType = strings.TrimSpace(roleType)
	instruction = strings.TrimSpace(instruction)

	if name == "" {
		return nil, fmt.Errorf("%w: agent role name cannot be empty", ErrInvalidTask)
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return nil, fmt.Errorf("%w: agent role name can only contain alphanumeric characters, underscores, and hyphens", ErrInvalidTask)
		}
	}
	if roleType == "" {
		return nil, fmt.Errorf("%w: role_type cannot be empty", ErrInvalidTask)
	}
	if instruction == "" {
		return nil, fmt.Errorf("%w: instruction cannot be empty", ErrInvalidTask)
	}

	return &AgentRole{
		Name:        name,
		RoleType:    roleType,
		Instruction: instruction,
		MaxTokens:   500,
		Temperature: 0.1,
		Metadata:    map[string]interface{}{},
	}, nil
}

// AgentDecision is a single agent's structured output for an evaluation task.
type AgentDecision struct {
	AgentName         string
	RoleType          string
	DecisionValue     interface{}
	Confidence        float64
	Rationale         string
	Evidence          []string
	ProcessingTimeMS  *int
	Metadata          map[string]interface{}
}

// NewAgentDecision validates and constructs an AgentDecision, trimming and
// dropping blank evidence entries the way the original framework's
// validators do.
func NewAgentDecision(agentName, roleType string, decisionValue interface{}, confidence float64, rationale string, evidence []string) (*AgentDecision, error) {
	agentName = strings.TrimSpace(agentName)
	roleType = strings.TrimSpace(roleType)
	rationale = strings.TrimSpace(rationale)

	if agentName == "" {
		return nil, fmt.Errorf("%w: agent_name cannot be empty", ErrInvalidTask)
	}
	if roleType == "" {
		return nil, fmt.Errorf("%w: role_type cannot be empty", ErrInvalidTask)
	}
	if rationale == "" {
		return nil, fmt.Errorf("%w: rationale cannot be empty", ErrInvalidTask)
	}
	if confidence < 0.0 || confidence > 1.0 {
		return nil, fmt.Errorf("%w: confidence must be in [0.0, 1.0]", ErrInvalidTask)
	}

	cleaned := make([]string, 0, len(evidence))
	for _, item := range evidence {
		item = strings.TrimSpace(item)
		if item != "" {
			cleaned = append(cleaned, item)
		}
	}

	return &AgentDecision{
		AgentName:     agentName,
		RoleType:      roleType,
		DecisionValue: decisionValue,
		Confidence:    confidence,
		Rationale:     rationale,
		Evidence:      cleaned,
		Metadata:      map[string]interface{}{},
	}, nil
}

// Agent is the C2 contract: given a task, produce a decision. Implementations
// are free to call out to an LLM, a rules engine, or a human — the
// orchestrator only depends on this method.
type Agent interface {
	Role() AgentRole
	Evaluate(ctx context.Context, task *EvaluationTask) (*AgentDecision, error)
}

// AlignmentSummary is the deterministic, explainable analysis of how well a
// set of agent decisions agree.
type AlignmentSummary struct {
	State                 AlignmentState
	AlignmentScore        float64
	DecisionAgreement     bool
	ConfidenceSpread      float64
	ConfidenceDistribution map[string]float64
	AvgConfidence         float64
	DissentingAgents      []string
	DisagreementAreas     []string
	ConsensusStrength     float64
	ResolutionRationale   string
	Metadata              map[string]interface{}
}

// EvaluationResult is the final output of a multi-agent evaluation: the
// synthesized decision plus everything needed to explain and, if necessary,
// escalate it.
type EvaluationResult struct {
	TaskID              string
	SynthesizedDecision interface{}
	Confidence          float64
	Reasoning           string
	Evidence            []string

	AgentDecisions   []*AgentDecision
	AlignmentSummary *AlignmentSummary

	RequiresHumanReview bool
	ReviewReason        string

	RequestID        string
	ProcessingTimeMS int64
	Metadata         map[string]interface{}
}

// HITLEscalationReason is the closed set of machine-readable reasons a
// HITLRequest can carry.
type HITLEscalationReason string

const (
	ReasonHardDisagreement   HITLEscalationReason = "hard_disagreement"
	ReasonLowConfidence      HITLEscalationReason = "low_confidence"
	ReasonInconsistentEvid   HITLEscalationReason = "inconsistent_evidence"
	ReasonCustomRule         HITLEscalationReason = "custom_rule"
)

// HITLRequest is the structured, serializable contract handed to a
// downstream human review system when automated resolution is unsafe. It is
// built by the hitl package's pure escalation builder and carries no
// persistence, UI, or workflow state — only what a reviewer needs to
// understand the disagreement.
type HITLRequest struct {
	RequestID       string
	TaskID          string
	AlignmentState  string
	AlignmentScore  float64
	EscalationReason HITLEscalationReason
	Summary         string

	AgentDecisions   []*AgentDecision
	DissentingAgents []string

	CreatedAt time.Time

	Metadata map[string]interface{}
}

// Validate is the pure semantic-consistency predicate for a HITLRequest,
// beyond what construction already guarantees: it catches a request that
// was hand-built (e.g. in a test) with internally inconsistent fields.
func (r *HITLRequest) Validate() bool {
	if r.AlignmentScore < 0.0 || r.AlignmentScore > 1.0 {
		return false
	}
	switch r.EscalationReason {
	case ReasonHardDisagreement, ReasonLowConfidence, ReasonInconsistentEvid, ReasonCustomRule:
	default:
		return false
	}
	if len(r.AgentDecisions) == 0 {
		return false
	}

	known := make(map[string]struct{}, len(r.AgentDecisions))
	for _, d := range r.AgentDecisions {
		known[d.AgentName] = struct{}{}
	}
	for _, name := range r.DissentingAgents {
		if _, ok := known[name]; !ok {
			return false
		}
	}
	return true
}
