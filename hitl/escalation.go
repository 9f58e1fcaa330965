// Package hitl builds the structured human-in-the-loop escalation contract
// (C6) from a completed evaluation. Building a request has no side effects
// beyond the event sink: identical inputs produce identical HITLRequest
// fields except RequestID (random 8-hex suffix) and CreatedAt (current UTC
// time), with no persistence, UI, or workflow state attached.
package hitl

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vikramwani/agentalign/core"
)

// Build produces a HITLRequest from a completed EvaluationResult, or nil if
// result.RequiresHumanReview is false. sink receives
// hitl_escalation_not_required or hitl_escalation_triggered.
func Build(result *core.EvaluationResult, sink core.EventSink) *core.HITLRequest {
	if !result.RequiresHumanReview {
		sink(core.EventHITLEscalationNotRequired, map[string]interface{}{
			"task_id":               result.TaskID,
			"alignment_state":       string(result.AlignmentSummary.State),
			"requires_human_review": result.RequiresHumanReview,
		})
		return nil
	}

	reason := determineEscalationReason(result.AlignmentSummary)
	summary := generateEscalationSummary(result.AlignmentSummary, reason)
	requestID := generateRequestID(result.TaskID)

	request := &core.HITLRequest{
		RequestID:        requestID,
		TaskID:           result.TaskID,
		AlignmentState:   string(result.AlignmentSummary.State),
		AlignmentScore:   result.AlignmentSummary.AlignmentScore,
		EscalationReason: reason,
		Summary:          summary,
		AgentDecisions:   result.AgentDecisions,
		DissentingAgents: result.AlignmentSummary.DissentingAgents,
		CreatedAt:        time.Now().UTC(),
		Metadata: map[string]interface{}{
			"confidence_spread":     result.AlignmentSummary.ConfidenceSpread,
			"avg_confidence":        result.AlignmentSummary.AvgConfidence,
			"disagreement_areas":    result.AlignmentSummary.DisagreementAreas,
			"consensus_strength":    result.AlignmentSummary.ConsensusStrength,
			"resolution_rationale":  result.AlignmentSummary.ResolutionRationale,
			"agent_count":           len(result.AgentDecisions),
			"processing_time_ms":    result.ProcessingTimeMS,
			"evaluation_request_id": result.RequestID,
		},
	}

	sink(core.EventHITLEscalationTriggered, map[string]interface{}{
		"request_id":        requestID,
		"task_id":           result.TaskID,
		"alignment_state":   string(result.AlignmentSummary.State),
		"escalation_reason": string(reason),
		"alignment_score":   result.AlignmentSummary.AlignmentScore,
		"dissenting_agents": result.AlignmentSummary.DissentingAgents,
		"confidence_spread": result.AlignmentSummary.ConfidenceSpread,
		"avg_confidence":    result.AlignmentSummary.AvgConfidence,
	})

	return request
}

// determineEscalationReason maps an alignment state (and, for soft
// disagreement, its disagreement areas) to the single most specific
// escalation reason. For results produced by the orchestrator only
// HARD_DISAGREEMENT reaches this point, since the analyzer only ever sets
// RequiresHumanReview on that state; the other branches are taken when Build
// is given an EvaluationResult whose RequiresHumanReview is set for another
// state.
func determineEscalationReason(summary *core.AlignmentSummary) core.HITLEscalationReason {
	switch summary.State {
	case core.HardDisagreement:
		return core.ReasonHardDisagreement
	case core.InsufficientSignal:
		return core.ReasonLowConfidence
	case core.SoftDisagreement:
		for _, area := range summary.DisagreementAreas {
			if area == "evidence_quality" {
				return core.ReasonInconsistentEvid
			}
		}
		return core.ReasonLowConfidence
	default:
		return core.ReasonCustomRule
	}
}

func generateEscalationSummary(summary *core.AlignmentSummary, reason core.HITLEscalationReason) string {
	switch reason {
	case core.ReasonHardDisagreement:
		dissentingCount := len(summary.DissentingAgents)
		totalAgents := len(summary.ConfidenceDistribution)
		return fmt.Sprintf("Agents fundamentally disagree on decision (%d/%d dissenting, confidence spread: %.2f)",
			dissentingCount, totalAgents, summary.ConfidenceSpread)

	case core.ReasonLowConfidence:
		return fmt.Sprintf("Agents lack sufficient confidence for reliable decision (avg confidence: %.2f, state: %s)",
			summary.AvgConfidence, summary.State)

	case core.ReasonInconsistentEvid:
		return fmt.Sprintf("Agents provide inconsistent evidence quality (disagreement areas: %s)",
			strings.Join(summary.DisagreementAreas, ", "))

	case core.ReasonCustomRule:
		return fmt.Sprintf("Custom escalation rule triggered (alignment state: %s, score: %.2f)",
			summary.State, summary.AlignmentScore)

	default:
		return fmt.Sprintf("Unknown escalation reason: %s", reason)
	}
}

// generateRequestID produces a "hitl-{task_id}-{8-hex}" identifier, matching
// the original escalation contract's format exactly.
func generateRequestID(taskID string) string {
	unique := uuid.New().String()[:8]
	return fmt.Sprintf("hitl-%s-%s", taskID, unique)
}
