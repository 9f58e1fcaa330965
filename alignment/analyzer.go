// Package alignment implements deterministic, explainable analysis and
// resolution of disagreement between multiple agent decisions (C3/C4),
// grounded in the original agent-alignment-framework's
// AlignmentAnalyzer/DisagreementResolver.
package alignment

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/vikramwani/agentalign/core"
)

// analysisVersion is stamped into every AlignmentSummary's metadata,
// matching the original resolution.py's fixed "2.0.0" tag.
const analysisVersion = "2.0.0"

// confidenceMetrics bundles the four derived confidence statistics the
// analyser's later steps all depend on.
type confidenceMetrics struct {
	average float64
	spread  float64
	min     float64
	max     float64
}

// Analyzer performs deterministic alignment analysis over a set of agent
// decisions using configurable core.Thresholds. Same inputs always produce
// the same AlignmentSummary.
type Analyzer struct {
	thresholds core.Thresholds
}

// NewAnalyzer constructs an Analyzer with the given thresholds.
func NewAnalyzer(thresholds core.Thresholds) *Analyzer {
	return &Analyzer{thresholds: thresholds}
}

// Analyze performs the full alignment analysis pipeline (C3) and returns a
// complete AlignmentSummary. sink receives alignment_analysis_started and
// alignment_analysis_completed events; pass core.NoOpEventSink to disable.
func (a *Analyzer) Analyze(task *core.EvaluationTask, decisions []*core.AgentDecision, sink core.EventSink) (*core.AlignmentSummary, error) {
	if len(decisions) < 2 {
		return nil, fmt.Errorf("alignment.Analyze: %w", core.ErrInsufficientAgents)
	}

	sink(core.EventAlignmentAnalysisStarted, map[string]interface{}{
		"task_id":             task.TaskID,
		"agent_count":         len(decisions),
		"decision_schema_type": task.DecisionSchema.SchemaType(),
	})

	decisionAgreement := a.analyzeDecisionAgreement(task.DecisionSchema, decisions)
	metrics := a.calculateConfidenceMetrics(decisions)
	dissenting := a.identifyDissentingAgents(decisions)
	disagreementAreas := a.detectDisagreementAreas(decisions, metrics)
	alignmentScore := a.calculateAlignmentScore(decisionAgreement, metrics, dissenting)
	state := a.determineAlignmentState(decisionAgreement, metrics, disagreementAreas)
	rationale := a.generateResolutionRationale(state, decisionAgreement, metrics, disagreementAreas)
	consensusStrength := alignmentScore * metrics.average

	confidenceDist := make(map[string]float64, len(decisions))
	for _, d := range decisions {
		confidenceDist[d.AgentName] = d.Confidence
	}

	summary := &core.AlignmentSummary{
		State:                  state,
		AlignmentScore:         alignmentScore,
		DecisionAgreement:      decisionAgreement,
		ConfidenceSpread:       metrics.spread,
		ConfidenceDistribution: confidenceDist,
		AvgConfidence:          metrics.average,
		DissentingAgents:       dissenting,
		DisagreementAreas:      disagreementAreas,
		ConsensusStrength:      consensusStrength,
		ResolutionRationale:    rationale,
		Metadata: map[string]interface{}{
			"agent_count":          len(decisions),
			"decision_schema_type": task.DecisionSchema.SchemaType(),
			"thresholds":           a.thresholds,
			"analysis_version":     analysisVersion,
		},
	}

	sink(core.EventAlignmentAnalysisCompleted, map[string]interface{}{
		"task_id":                 task.TaskID,
		"alignment_state":         string(state),
		"alignment_score":         alignmentScore,
		"decision_agreement":      decisionAgreement,
		"confidence_spread":       metrics.spread,
		"avg_confidence":          metrics.average,
		"dissenting_agent_count":  len(dissenting),
		"disagreement_area_count": len(disagreementAreas),
		"consensus_strength":      consensusStrength,
	})

	return summary, nil
}

// RequiresHumanReview implements the HITL trigger: only HARD_DISAGREEMENT
// escalates, per the original framework's deliberately narrow rule (see
// DESIGN.md's Open Question decisions).
func (a *Analyzer) RequiresHumanReview(summary *core.AlignmentSummary) (bool, string) {
	if summary.State == core.HardDisagreement {
		return true, "Agents have fundamental disagreements requiring human review"
	}
	return false, ""
}

// analyzeDecisionAgreement dispatches on the concrete schema type (a Go type
// switch stands in for the original's isinstance chain) to decide whether
// the agents agree on the primary decision.
func (a *Analyzer) analyzeDecisionAgreement(schema core.DecisionSchema, decisions []*core.AgentDecision) bool {
	switch s := schema.(type) {
	case *core.BooleanDecisionSchema:
		return allEqual(stringValues(decisions))

	case *core.CategoricalDecisionSchema:
		return allEqual(stringValues(decisions))

	case *core.ScalarDecisionSchema:
		if len(decisions) < 2 {
			return true
		}
		values := make([]float64, 0, len(decisions))
		for _, d := range decisions {
			v, _ := toFloat64(d.DecisionValue)
			values = append(values, v)
		}
		toleranceRange := s.MaxValue - s.MinValue
		tolerance := toleranceRange * a.thresholds.ScalarDecisionToleranceRatio
		mean := meanOf(values)
		for _, v := range values {
			if math.Abs(v-mean) > tolerance {
				return false
			}
		}
		return true

	case *core.FreeFormDecisionSchema:
		normalized := make(map[string]struct{})
		for _, d := range decisions {
			normalized[strings.ToLower(strings.TrimSpace(fmt.Sprint(d.DecisionValue)))] = struct{}{}
		}
		return len(normalized) == 1

	default:
		return allEqual(stringValues(decisions))
	}
}

func (a *Analyzer) calculateConfidenceMetrics(decisions []*core.AgentDecision) confidenceMetrics {
	confidences := make([]float64, len(decisions))
	for i, d := range decisions {
		confidences[i] = d.Confidence
	}
	if len(confidences) == 1 {
		return confidenceMetrics{average: confidences[0], spread: 0.0, min: confidences[0], max: confidences[0]}
	}

	min, max := confidences[0], confidences[0]
	sum := 0.0
	for _, c := range confidences {
		sum += c
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
	}
	return confidenceMetrics{average: sum / float64(len(confidences)), spread: max - min, min: min, max: max}
}

// identifyDissentingAgents finds the majority decision by frequency and
// returns the names of agents outside it. Ties are broken by input order:
// the first decision value to reach the highest count wins, matching the
// original's dict-insertion-order max().
func (a *Analyzer) identifyDissentingAgents(decisions []*core.AgentDecision) []string {
	if len(decisions) < 2 {
		return nil
	}

	order := []string{}
	counts := map[string][]string{}
	for _, d := range decisions {
		key := canonicalCategoryValue(d.DecisionValue)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key] = append(counts[key], d.AgentName)
	}

	majorityKey := order[0]
	for _, key := range order[1:] {
		if len(counts[key]) > len(counts[majorityKey]) {
			majorityKey = key
		}
	}

	majority := make(map[string]struct{}, len(counts[majorityKey]))
	for _, name := range counts[majorityKey] {
		majority[name] = struct{}{}
	}

	dissenting := make([]string, 0)
	for _, d := range decisions {
		if _, ok := majority[d.AgentName]; !ok {
			dissenting = append(dissenting, d.AgentName)
		}
	}
	return dissenting
}

// detectDisagreementAreas runs the four independent, deterministic checks
// that feed HARD_DISAGREEMENT's "disagreement_areas >= 3" rule.
func (a *Analyzer) detectDisagreementAreas(decisions []*core.AgentDecision, metrics confidenceMetrics) []string {
	areas := make([]string, 0, 4)

	if !allEqual(stringValues(decisions)) {
		areas = append(areas, "primary_decision")
	}
	if metrics.spread > a.thresholds.SoftDisagreementConfidenceSpread {
		areas = append(areas, "confidence_levels")
	}
	if a.calculateReasoningOverlap(decisions) < a.thresholds.ReasoningOverlapThreshold {
		areas = append(areas, "reasoning_approach")
	}
	if a.calculateEvidenceConsistency(decisions) < a.thresholds.EvidenceConsistencyThreshold {
		areas = append(areas, "evidence_quality")
	}

	return areas
}

// calculateReasoningOverlap is the intersection-over-union of each agent's
// rationale keywords (words longer than 3 characters, lowercased).
func (a *Analyzer) calculateReasoningOverlap(decisions []*core.AgentDecision) float64 {
	if len(decisions) < 2 {
		return 1.0
	}

	keywordSets := make([]map[string]struct{}, len(decisions))
	for i, d := range decisions {
		set := map[string]struct{}{}
		for _, word := range strings.Fields(d.Rationale) {
			if len(word) > 3 {
				set[strings.ToLower(strings.TrimSpace(word))] = struct{}{}
			}
		}
		keywordSets[i] = set
	}

	common := keywordSets[0]
	all := map[string]struct{}{}
	for k := range keywordSets[0] {
		all[k] = struct{}{}
	}
	for _, set := range keywordSets[1:] {
		nextCommon := map[string]struct{}{}
		for k := range common {
			if _, ok := set[k]; ok {
				nextCommon[k] = struct{}{}
			}
		}
		common = nextCommon
		for k := range set {
			all[k] = struct{}{}
		}
	}

	if len(all) == 0 {
		return 0.0
	}
	return float64(len(common)) / float64(len(all))
}

// calculateEvidenceConsistency scores how uniformly sized each agent's
// evidence list is, via the coefficient of variation of evidence counts.
func (a *Analyzer) calculateEvidenceConsistency(decisions []*core.AgentDecision) float64 {
	if len(decisions) < 2 {
		return 1.0
	}

	lengths := make([]float64, len(decisions))
	for i, d := range decisions {
		lengths[i] = float64(len(d.Evidence))
	}

	mean := meanOf(lengths)
	if mean == 0 {
		for _, l := range lengths {
			if l != 0 {
				return 0.0
			}
		}
		return 1.0
	}

	stdDev := stdDevOf(lengths, mean)
	coefficientOfVariation := stdDev / mean
	return math.Max(0.0, 1.0-coefficientOfVariation)
}

// calculateAlignmentScore combines decision agreement (40%), confidence
// consistency (30%), and consensus breadth (30%) into a single [0,1] score.
func (a *Analyzer) calculateAlignmentScore(decisionAgreement bool, metrics confidenceMetrics, dissenting []string) float64 {
	score := 0.0

	if decisionAgreement {
		score += 0.4
	}

	confidenceConsistency := math.Max(0.0, 1.0-metrics.spread)
	score += 0.3 * confidenceConsistency

	totalAgents := len(dissenting) + 1
	consensusBreadth := 1.0 - (float64(len(dissenting)) / float64(totalAgents))
	score += 0.3 * consensusBreadth

	return math.Min(1.0, math.Max(0.0, score))
}

// determineAlignmentState applies the fixed priority order: insufficient
// signal first, then hard disagreement, then soft disagreement, else full
// alignment.
func (a *Analyzer) determineAlignmentState(decisionAgreement bool, metrics confidenceMetrics, disagreementAreas []string) core.AlignmentState {
	if metrics.average < a.thresholds.InsufficientSignalAvgConfidence {
		return core.InsufficientSignal
	}

	if !decisionAgreement ||
		metrics.spread > a.thresholds.HardDisagreementConfidenceSpread ||
		len(disagreementAreas) >= 3 {
		return core.HardDisagreement
	}

	if metrics.spread > a.thresholds.SoftDisagreementConfidenceSpread || len(disagreementAreas) >= 1 {
		return core.SoftDisagreement
	}

	return core.FullAlignment
}

func (a *Analyzer) generateResolutionRationale(state core.AlignmentState, decisionAgreement bool, metrics confidenceMetrics, disagreementAreas []string) string {
	switch state {
	case core.FullAlignment:
		return fmt.Sprintf("Full alignment: agents agree on decision with avg confidence %.2f", metrics.average)

	case core.SoftDisagreement:
		areas := "confidence levels"
		if len(disagreementAreas) > 0 {
			areas = strings.Join(disagreementAreas, ", ")
		}
		return fmt.Sprintf("Soft disagreement in %s (spread: %.2f)", areas, metrics.spread)

	case core.HardDisagreement:
		if !decisionAgreement {
			return "Hard disagreement: agents disagree on primary decision"
		}
		return fmt.Sprintf("Hard disagreement: high confidence spread (%.2f) or multiple conflict areas", metrics.spread)

	case core.InsufficientSignal:
		return fmt.Sprintf("Insufficient signal: low average confidence (%.2f)", metrics.average)

	default:
		return fmt.Sprintf("Unknown alignment state: %s", state)
	}
}

func allEqual(values []string) bool {
	if len(values) == 0 {
		return true
	}
	first := values[0]
	for _, v := range values[1:] {
		if v != first {
			return false
		}
	}
	return true
}

func stringValues(decisions []*core.AgentDecision) []string {
	values := make([]string, len(decisions))
	for i, d := range decisions {
		values[i] = canonicalCategoryValue(d.DecisionValue)
	}
	return values
}

// canonicalCategoryValue stringifies a decision value for equality and
// keying purposes. A CategoricalDecisionSchema with AllowMultiple produces
// []string decision values that are order-insensitive sets (spec: "equality
// ignores order"), so those are sorted before joining; everything else
// stringifies the same way fmt.Sprint always did.
func canonicalCategoryValue(v interface{}) string {
	switch val := v.(type) {
	case []string:
		sorted := append([]string(nil), val...)
		sort.Strings(sorted)
		return strings.Join(sorted, ",")
	case []interface{}:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = fmt.Sprint(item)
		}
		sort.Strings(parts)
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDevOf(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0.0
	}
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
