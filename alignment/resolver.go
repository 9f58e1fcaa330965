package alignment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vikramwani/agentalign/core"
)

// Resolver synthesizes a single final decision from a set of agent
// decisions, dispatching on the task's concrete decision schema. Resolution
// is deterministic: the same inputs always produce the same decision,
// confidence, reasoning string, and evidence list.
type Resolver struct{}

// NewResolver constructs a Resolver. It carries no state of its own; it
// only needs the AlignmentSummary already computed by an Analyzer.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve synthesizes the final decision (C4) for task from decisions and
// summary, emitting disagreement_resolution_started/completed events.
func (r *Resolver) Resolve(task *core.EvaluationTask, decisions []*core.AgentDecision, summary *core.AlignmentSummary, sink core.EventSink) (decision interface{}, confidence float64, reasoning string, evidence []string) {
	sink(core.EventDisagreementResolutionStarted, map[string]interface{}{
		"task_id":              task.TaskID,
		"agent_count":          len(decisions),
		"alignment_state":      string(summary.State),
		"decision_schema_type": task.DecisionSchema.SchemaType(),
	})

	switch task.DecisionSchema.(type) {
	case *core.BooleanDecisionSchema:
		decision, confidence, reasoning, evidence = r.resolveBoolean(decisions, summary)
	case *core.CategoricalDecisionSchema:
		decision, confidence, reasoning, evidence = r.resolveCategorical(decisions, summary)
	case *core.ScalarDecisionSchema:
		decision, confidence, reasoning, evidence = r.resolveScalar(decisions, summary)
	case *core.FreeFormDecisionSchema:
		decision, confidence, reasoning, evidence = r.resolveFreeForm(decisions, summary)
	default:
		decision, confidence, reasoning, evidence = r.resolveHighestConfidence(decisions, summary)
	}

	sink(core.EventDisagreementResolutionDone, map[string]interface{}{
		"task_id":         task.TaskID,
		"final_decision":  fmt.Sprint(decision),
		"final_confidence": confidence,
		"alignment_state": string(summary.State),
		"evidence_count":  len(evidence),
	})

	return decision, confidence, reasoning, evidence
}

// resolveBoolean uses confidence-weighted majority vote between true/false.
func (r *Resolver) resolveBoolean(decisions []*core.AgentDecision, summary *core.AlignmentSummary) (bool, float64, string, []string) {
	weightedTrue, weightedFalse := 0.0, 0.0
	for _, d := range decisions {
		if v, ok := d.DecisionValue.(bool); ok {
			if v {
				weightedTrue += d.Confidence
			} else {
				weightedFalse += d.Confidence
			}
		}
	}

	decision := weightedTrue > weightedFalse
	confidence := summary.ConsensusStrength

	supporting := make([]*core.AgentDecision, 0, len(decisions))
	for _, d := range decisions {
		if v, ok := d.DecisionValue.(bool); ok && v == decision {
			supporting = append(supporting, d)
		}
	}

	weightedScore := weightedFalse
	if decision {
		weightedScore = weightedTrue
	}
	reasoning := fmt.Sprintf("Boolean decision: %t based on confidence-weighted majority (%d/%d agents, weighted score: %.2f)",
		decision, len(supporting), len(decisions), weightedScore)

	evidence := collectEvidence(limitDecisions(supporting, 3), 2)
	return decision, confidence, reasoning, clampEvidence(evidence)
}

// resolveCategorical picks the category with the highest confidence-weighted
// score. Ties are broken by first-encountered category, matching the
// original's dict-insertion-order max().
func (r *Resolver) resolveCategorical(decisions []*core.AgentDecision, summary *core.AlignmentSummary) (string, float64, string, []string) {
	order := []string{}
	scores := map[string]float64{}
	for _, d := range decisions {
		category := canonicalCategoryValue(d.DecisionValue)
		if _, seen := scores[category]; !seen {
			order = append(order, category)
		}
		scores[category] += d.Confidence
	}

	decision := order[0]
	for _, category := range order[1:] {
		if scores[category] > scores[decision] {
			decision = category
		}
	}

	confidence := summary.ConsensusStrength

	supporting := make([]*core.AgentDecision, 0, len(decisions))
	for _, d := range decisions {
		if canonicalCategoryValue(d.DecisionValue) == decision {
			supporting = append(supporting, d)
		}
	}

	reasoning := fmt.Sprintf("Categorical decision: '%s' selected by confidence-weighted vote (%d/%d agents, weighted score: %.2f)",
		decision, len(supporting), len(decisions), scores[decision])

	evidence := collectEvidence(supporting, 2)
	return decision, confidence, reasoning, clampEvidence(evidence)
}

// resolveScalar computes a confidence-weighted average, falling back to an
// unweighted mean if every agent reported zero confidence.
func (r *Resolver) resolveScalar(decisions []*core.AgentDecision, summary *core.AlignmentSummary) (float64, float64, string, []string) {
	totalWeight := 0.0
	values := make([]float64, len(decisions))
	for i, d := range decisions {
		v, _ := toFloat64(d.DecisionValue)
		values[i] = v
		totalWeight += d.Confidence
	}

	var decision float64
	if totalWeight == 0 {
		decision = meanOf(values)
	} else {
		weightedSum := 0.0
		for i, d := range decisions {
			weightedSum += values[i] * d.Confidence
		}
		decision = weightedSum / totalWeight
	}

	confidence := summary.ConsensusStrength

	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	reasoning := fmt.Sprintf("Scalar decision: %.3f from confidence-weighted average (range: %.3f-%.3f, total weight: %.2f)",
		decision, minVal, maxVal, totalWeight)

	sorted := append([]*core.AgentDecision(nil), decisions...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Confidence > sorted[j].Confidence })
	evidence := collectEvidence(limitDecisions(sorted, 3), 2)
	return decision, confidence, reasoning, clampEvidence(evidence)
}

// resolveFreeForm takes the highest-confidence agent's text as the primary
// decision and summarizes up to two other perspectives alongside it.
func (r *Resolver) resolveFreeForm(decisions []*core.AgentDecision, summary *core.AlignmentSummary) (string, float64, string, []string) {
	highest := highestConfidence(decisions)
	decision := fmt.Sprint(highest.DecisionValue)

	confidence := summary.ConsensusStrength

	truncated := decision
	if len(truncated) > 100 {
		truncated = truncated[:100]
	}
	reasoning := fmt.Sprintf("Free-form decision from highest confidence agent (%s: %.2f): %s...",
		highest.AgentName, highest.Confidence, truncated)

	others := make([]*core.AgentDecision, 0, len(decisions)-1)
	for _, d := range decisions {
		if d != highest {
			others = append(others, d)
		}
	}
	if len(others) > 0 {
		limit := 2
		if len(others) < limit {
			limit = len(others)
		}
		summaries := make([]string, 0, limit)
		for _, d := range others[:limit] {
			text := fmt.Sprint(d.DecisionValue)
			if len(text) > 30 {
				text = text[:30]
			}
			summaries = append(summaries, fmt.Sprintf("%s: %s...", d.AgentName, text))
		}
		reasoning += " Other perspectives: " + strings.Join(summaries, "; ")
	}

	evidence := collectEvidence(decisions, 2)
	return decision, confidence, reasoning, clampEvidence(evidence)
}

// resolveHighestConfidence is the fallback used for any decision schema the
// resolver does not recognize by concrete type.
func (r *Resolver) resolveHighestConfidence(decisions []*core.AgentDecision, summary *core.AlignmentSummary) (interface{}, float64, string, []string) {
	highest := highestConfidence(decisions)
	confidence := summary.ConsensusStrength
	reasoning := fmt.Sprintf("Fallback resolution using highest confidence agent (%s: %.2f)", highest.AgentName, highest.Confidence)
	return highest.DecisionValue, confidence, reasoning, clampEvidence(highest.Evidence)
}

func highestConfidence(decisions []*core.AgentDecision) *core.AgentDecision {
	highest := decisions[0]
	for _, d := range decisions[1:] {
		if d.Confidence > highest.Confidence {
			highest = d
		}
	}
	return highest
}

func limitDecisions(decisions []*core.AgentDecision, n int) []*core.AgentDecision {
	if len(decisions) < n {
		return decisions
	}
	return decisions[:n]
}

func collectEvidence(decisions []*core.AgentDecision, perAgent int) []string {
	evidence := make([]string, 0)
	for _, d := range decisions {
		items := d.Evidence
		if len(items) > perAgent {
			items = items[:perAgent]
		}
		evidence = append(evidence, items...)
	}
	return evidence
}

// clampEvidence applies the spec's uniform 5-item evidence cap, including on
// the unknown-schema fallback path (see DESIGN.md's Open Question decision).
func clampEvidence(evidence []string) []string {
	if len(evidence) > 5 {
		return evidence[:5]
	}
	return evidence
}
