package alignment

import "github.com/vikramwani/agentalign/core"

// Engine bundles an Analyzer and a Resolver behind the single interface the
// orchestrator depends on, mirroring the original framework's AlignmentEngine
// composition root.
type Engine struct {
	analyzer *Analyzer
	resolver *Resolver
}

// NewEngine constructs an Engine from the given thresholds.
func NewEngine(thresholds core.Thresholds) *Engine {
	return &Engine{
		analyzer: NewAnalyzer(thresholds),
		resolver: NewResolver(),
	}
}

// AnalyzeAlignment runs C3 alignment analysis over decisions.
func (e *Engine) AnalyzeAlignment(task *core.EvaluationTask, decisions []*core.AgentDecision, sink core.EventSink) (*core.AlignmentSummary, error) {
	return e.analyzer.Analyze(task, decisions, sink)
}

// NeedsHumanReview reports whether summary warrants HITL escalation.
func (e *Engine) NeedsHumanReview(summary *core.AlignmentSummary) (bool, string) {
	return e.analyzer.RequiresHumanReview(summary)
}

// SynthesizeDecision runs C4 disagreement resolution over decisions.
func (e *Engine) SynthesizeDecision(task *core.EvaluationTask, decisions []*core.AgentDecision, summary *core.AlignmentSummary, sink core.EventSink) (decision interface{}, confidence float64, reasoning string, evidence []string) {
	return e.resolver.Resolve(task, decisions, summary, sink)
}
