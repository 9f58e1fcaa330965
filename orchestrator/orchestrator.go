// Package orchestrator implements C5: concurrent fan-out of registered
// agents over an evaluation task, schema-aware alignment synthesis, and
// assembly of the final EvaluationResult.
package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vikramwani/agentalign/alignment"
	"github.com/vikramwani/agentalign/core"
)

// Orchestrator coordinates a fixed set of registered agents across
// evaluation runs, synthesizing a final decision from their individual
// AgentDecisions via an alignment.Engine.
//
// Unlike the framework this was distilled from, agents run concurrently
// (bounded by ConcurrencyCap) rather than sequentially, and only
// TransientFailure-classified errors are retried — see DESIGN.md's Open
// Question decisions for why both departures are safe.
type Orchestrator struct {
	agents    []core.Agent
	engine    *alignment.Engine
	config    *core.OrchestratorConfig
	logger    core.ComponentAwareLogger
	sink      core.EventSink
	telemetry core.Telemetry

	semaphore chan struct{}
}

// SetTelemetry attaches a telemetry provider. When set, Evaluate opens a
// span for the whole evaluation and executeAgentWithRetry opens one span
// per agent attempt; when unset, Evaluate runs with no tracing overhead.
func (o *Orchestrator) SetTelemetry(t core.Telemetry) {
	o.telemetry = t
}

// New constructs an Orchestrator. At least one agent must be registered;
// alignment analysis itself still requires at least two AgentDecisions per
// run (core.ErrInsufficientAgents), so a single-agent Orchestrator can
// register agents but will fail every Evaluate call — this is intentional,
// matching the constructor-time-only validation the original performs.
func New(agents []core.Agent, config *core.OrchestratorConfig, sink core.EventSink) (*Orchestrator, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("%w: at least one agent must be provided", core.ErrInvalidTask)
	}
	if config == nil {
		var err error
		config, err = core.NewConfig()
		if err != nil {
			return nil, err
		}
	}
	if sink == nil {
		sink = core.NoOpEventSink
	}

	cap := config.ConcurrencyCap
	if cap <= 0 {
		cap = len(agents)
	}

	var base core.ComponentAwareLogger
	if cal, ok := config.Logger().(core.ComponentAwareLogger); ok {
		base = cal
	} else {
		base = &componentLoggerAdapter{Logger: config.Logger()}
	}
	scoped := base.WithComponent("evalcore/orchestrator").(core.ComponentAwareLogger)

	return &Orchestrator{
		agents:    agents,
		engine:    alignment.NewEngine(config.Thresholds),
		config:    config,
		logger:    scoped,
		sink:      sink,
		semaphore: make(chan struct{}, cap),
	}, nil
}

// componentLoggerAdapter lets Orchestrator accept a bare core.Logger (e.g.
// core.NoOpLogger) without requiring every caller to implement WithComponent.
type componentLoggerAdapter struct {
	core.Logger
}

func (a *componentLoggerAdapter) WithComponent(component string) core.Logger { return a }

// Evaluate runs the full C5 pipeline: validate, execute agents, analyze
// alignment, synthesize a decision, and check whether human review is
// required.
func (o *Orchestrator) Evaluate(ctx context.Context, task *core.EvaluationTask) (*core.EvaluationResult, error) {
	requestID := uuid.New().String()[:8]
	start := time.Now()

	var span core.Span
	if o.telemetry != nil {
		ctx, span = o.telemetry.StartSpan(ctx, "evalcore.evaluate")
		span.SetAttribute("task_id", task.TaskID)
		span.SetAttribute("request_id", requestID)
		defer span.End()
	}

	o.sink(core.EventMultiAgentEvaluationStarted, map[string]interface{}{
		"task_id":     task.TaskID,
		"task_type":   task.TaskType,
		"agent_count": len(o.agents),
		"request_id":  requestID,
	})

	if err := o.validateTask(task); err != nil {
		if span != nil {
			span.RecordError(err)
		}
		o.logEvaluationError(task, err, time.Since(start), requestID)
		return nil, err
	}

	decisions, err := o.executeAgents(ctx, task, requestID)
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		o.logEvaluationError(task, err, time.Since(start), requestID)
		return nil, err
	}

	summary, err := o.engine.AnalyzeAlignment(task, decisions, o.sink)
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		o.logEvaluationError(task, err, time.Since(start), requestID)
		return nil, err
	}

	decision, confidence, reasoning, evidence := o.engine.SynthesizeDecision(task, decisions, summary, o.sink)

	needsReview, reviewReason := o.engine.NeedsHumanReview(summary)

	if span != nil {
		span.SetAttribute("alignment_state", string(summary.State))
		span.SetAttribute("requires_human_review", needsReview && o.config.EnableHITL)
	}

	successful := 0
	for _, d := range decisions {
		if d.Confidence > 0 {
			successful++
		}
	}

	result := &core.EvaluationResult{
		TaskID:              task.TaskID,
		SynthesizedDecision:  decision,
		Confidence:           confidence,
		Reasoning:            reasoning,
		Evidence:             evidence,
		AgentDecisions:       decisions,
		AlignmentSummary:     summary,
		RequiresHumanReview:  needsReview && o.config.EnableHITL,
		ReviewReason:         reviewReason,
		RequestID:            requestID,
		ProcessingTimeMS:     time.Since(start).Milliseconds(),
		Metadata: map[string]interface{}{
			"agent_count":      len(decisions),
			"successful_agents": successful,
			"alignment_state":  string(summary.State),
		},
	}

	o.sink(core.EventMultiAgentEvaluationDone, map[string]interface{}{
		"task_id":               result.TaskID,
		"synthesized_decision":  fmt.Sprint(result.SynthesizedDecision),
		"confidence":            result.Confidence,
		"alignment_state":       string(summary.State),
		"requires_human_review": result.RequiresHumanReview,
		"agent_count":           len(result.AgentDecisions),
		"processing_time_ms":    result.ProcessingTimeMS,
		"request_id":            result.RequestID,
	})

	return result, nil
}

func (o *Orchestrator) validateTask(task *core.EvaluationTask) error {
	if task.TaskID == "" {
		return fmt.Errorf("%w: task must have a valid task_id", core.ErrInvalidTask)
	}
	if task.TaskType == "" {
		return fmt.Errorf("%w: task must have a task_type", core.ErrInvalidTask)
	}
	if task.EvaluationCriteria == "" {
		return fmt.Errorf("%w: task must have evaluation_criteria", core.ErrInvalidTask)
	}
	if len(task.Context) == 0 {
		return fmt.Errorf("%w: task must have context data", core.ErrInvalidTask)
	}
	return nil
}

// executeAgents fans every registered agent out concurrently (bounded by
// ConcurrencyCap), retrying transient failures with a linear backoff, and
// assembles the results in registered-agent order rather than completion
// order.
func (o *Orchestrator) executeAgents(ctx context.Context, task *core.EvaluationTask, requestID string) ([]*core.AgentDecision, error) {
	results := make([]*core.AgentDecision, len(o.agents))
	failures := make([]core.AgentFailure, len(o.agents))
	failed := make([]bool, len(o.agents))

	var wg sync.WaitGroup
	for i, agent := range o.agents {
		wg.Add(1)
		go func(idx int, a core.Agent) {
			defer wg.Done()

			o.semaphore <- struct{}{}
			defer func() { <-o.semaphore }()

			defer func() {
				if r := recover(); r != nil {
					stack := string(debug.Stack())
					o.logger.Error("agent execution panicked", map[string]interface{}{
						"agent_name": a.Role().Name,
						"role_type":  a.Role().RoleType,
						"task_id":    task.TaskID,
						"panic":      fmt.Sprintf("%v", r),
						"stack":      stack,
					})
					failed[idx] = true
					failures[idx] = core.AgentFailure{
						AgentName: a.Role().Name,
						RoleType:  a.Role().RoleType,
						Err:       fmt.Errorf("agent %s execution panic: %v", a.Role().Name, r),
					}
				}
			}()

			o.sink(core.EventExecutingAgent, map[string]interface{}{
				"agent_name": a.Role().Name,
				"role_type":  a.Role().RoleType,
				"task_id":    task.TaskID,
				"request_id": requestID,
			})

			decision, err := o.executeAgentWithRetry(ctx, a, task)
			if err != nil {
				o.sink(core.EventAgentExecutionFailed, map[string]interface{}{
					"agent_name": a.Role().Name,
					"role_type":  a.Role().RoleType,
					"task_id":    task.TaskID,
					"error":      err.Error(),
					"request_id": requestID,
				})
				failed[idx] = true
				failures[idx] = core.AgentFailure{AgentName: a.Role().Name, RoleType: a.Role().RoleType, Err: err}
				return
			}

			results[idx] = decision
		}(i, agent)
	}
	wg.Wait()

	decisions := make([]*core.AgentDecision, 0, len(results))
	agentFailures := make([]core.AgentFailure, 0)
	for i, d := range results {
		if failed[i] {
			agentFailures = append(agentFailures, failures[i])
			continue
		}
		decisions = append(decisions, d)
	}

	if len(decisions) == 0 {
		return nil, &core.OrchestratorError{
			TaskID:   task.TaskID,
			Failures: agentFailures,
			Err:      fmt.Errorf("all agents failed to execute"),
		}
	}

	if len(agentFailures) > 0 {
		o.sink(core.EventPartialAgentFailure, map[string]interface{}{
			"task_id":            task.TaskID,
			"successful_agents":  len(decisions),
			"failed_agent_count": len(agentFailures),
			"request_id":         requestID,
		})
	}

	return decisions, nil
}

// executeAgentWithRetry retries an agent's Evaluate call up to MaxRetries
// times, but only for TransientFailure-classified errors. Every successful
// attempt is re-validated against the task's schema and confidence range
// (validateDecision) before being accepted, so a misbehaving core.Agent
// can't feed the alignment engine an out-of-contract decision. The backoff
// is a fixed linear schedule (0.5 * attempt seconds, no jitter), matching
// the original framework's actual sleep call rather than its "exponential
// backoff" comment, which does not describe what the code does.
func (o *Orchestrator) executeAgentWithRetry(ctx context.Context, agent core.Agent, task *core.EvaluationTask) (*core.AgentDecision, error) {
	var lastErr error

	for attempt := 0; attempt < o.config.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, o.config.AgentTimeout)

		var attemptSpan core.Span
		if o.telemetry != nil {
			attemptCtx, attemptSpan = o.telemetry.StartSpan(attemptCtx, "evalcore.agent_attempt")
			attemptSpan.SetAttribute("agent_name", agent.Role().Name)
			attemptSpan.SetAttribute("attempt", attempt+1)
		}

		decision, err := agent.Evaluate(attemptCtx, task)
		cancel()

		if err == nil {
			err = validateDecision(task, decision)
		}

		if err != nil && attemptSpan != nil {
			attemptSpan.RecordError(err)
		}
		if attemptSpan != nil {
			attemptSpan.End()
		}

		if err == nil {
			return decision, nil
		}
		lastErr = err

		if !core.IsTransient(err) {
			return nil, fmt.Errorf("agent %s failed: %w", agent.Role().Name, err)
		}

		if attempt < o.config.MaxRetries-1 {
			o.sink(core.EventAgentRetry, map[string]interface{}{
				"agent_name":  agent.Role().Name,
				"attempt":     attempt + 1,
				"max_retries": o.config.MaxRetries,
				"error":       err.Error(),
			})

			select {
			case <-time.After(time.Duration(500*(attempt+1)) * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("agent %s failed after %d attempts: %w", agent.Role().Name, o.config.MaxRetries, lastErr)
}

// validateDecision re-checks a successful agent attempt against the task's
// schema and the confidence range before it is accepted. An agent
// implementation that returns a decision_value the schema rejects, or a
// confidence outside [0,1], is not transient-retryable — retrying would just
// reproduce the same invalid output — so this demotes the attempt to
// ErrPermanentFailure regardless of what error (if any) the agent reported.
func validateDecision(task *core.EvaluationTask, decision *core.AgentDecision) error {
	if decision.Confidence < 0.0 || decision.Confidence > 1.0 {
		return fmt.Errorf("%s: %w: confidence %.3f out of range [0,1]", decision.AgentName, core.ErrPermanentFailure, decision.Confidence)
	}
	if !task.DecisionSchema.Validate(decision.DecisionValue) {
		return fmt.Errorf("%s: %w: decision value does not conform to task schema", decision.AgentName, core.ErrPermanentFailure)
	}
	return nil
}

func (o *Orchestrator) logEvaluationError(task *core.EvaluationTask, err error, elapsed time.Duration, requestID string) {
	o.sink(core.EventMultiAgentEvaluationFailed, map[string]interface{}{
		"task_id":            task.TaskID,
		"task_type":           task.TaskType,
		"error":               err.Error(),
		"processing_time_ms":  elapsed.Milliseconds(),
		"request_id":          requestID,
	})
}
