// Command evalcore runs a single multi-agent evaluation end to end using the
// reference mockagent implementation, printing the synthesized decision and,
// if triggered, the resulting HITL escalation request.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/vikramwani/agentalign/core"
	"github.com/vikramwani/agentalign/hitl"
	"github.com/vikramwani/agentalign/mockagent"
	"github.com/vikramwani/agentalign/orchestrator"
	"github.com/vikramwani/agentalign/telemetry"
)

func main() {
	config, err := core.NewConfig(core.WithMaxRetries(3), core.WithEnableHITL(true))
	if err != nil {
		log.Fatalf("evalcore: invalid configuration: %v", err)
	}

	var provider *telemetry.OTelProvider
	if config.Telemetry.Enabled {
		provider, err = telemetry.NewOTelProvider("evalcore", config.Telemetry)
		if err != nil {
			log.Fatalf("evalcore: failed to start telemetry: %v", err)
		}
		defer func() {
			if err := provider.Shutdown(context.Background()); err != nil {
				log.Printf("evalcore: telemetry shutdown error: %v", err)
			}
		}()
	}

	schema := core.NewBooleanDecisionSchema("approve", "reject")

	task, err := core.NewEvaluationTask(
		"task-001",
		"content_moderation",
		schema,
		map[string]interface{}{
			"content":   "Example submission requiring a compatibility decision.",
			"submitter": "user-42",
		},
		"Decide whether the submission complies with platform policy.",
	)
	if err != nil {
		log.Fatalf("evalcore: invalid task: %v", err)
	}

	agents, err := buildReferenceAgents()
	if err != nil {
		log.Fatalf("evalcore: failed to build agents: %v", err)
	}

	sink := loggingEventSink(config.Logger())
	if provider != nil {
		sink = telemetry.OTelEventSink(provider, sink)
	}

	orch, err := orchestrator.New(agents, config, sink)
	if err != nil {
		log.Fatalf("evalcore: failed to construct orchestrator: %v", err)
	}
	if provider != nil {
		orch.SetTelemetry(provider)
	}

	result, err := orch.Evaluate(context.Background(), task)
	if err != nil {
		log.Fatalf("evalcore: evaluation failed: %v", err)
	}

	printResult(result)

	if request := hitl.Build(result, sink); request != nil {
		printHITLRequest(request)
	}
}

func buildReferenceAgents() ([]core.Agent, error) {
	roleSpecs := []struct {
		name        string
		roleType    string
		instruction string
		response    string
	}{
		{
			name:        "advocate",
			roleType:    "advocate",
			instruction: "Argue for approving the submission when reasonably compliant.",
			response:    `{"decision": true, "confidence": 0.82, "rationale": "Submission meets baseline policy requirements with minor wording concerns.", "evidence": ["no prohibited terms found", "submitter in good standing"]}`,
		},
		{
			name:        "skeptic",
			roleType:    "skeptic",
			instruction: "Look for policy violations the advocate may have missed.",
			response:    `{"decision": true, "confidence": 0.61, "rationale": "Submission is borderline but no clear violation present.", "evidence": ["ambiguous phrasing in section 2"]}`,
		},
		{
			name:        "domain_expert",
			roleType:    "domain_expert",
			instruction: "Apply platform policy precedent to the submission.",
			response:    `{"decision": false, "confidence": 0.55, "rationale": "Similar submissions have been rejected under policy 4.2.", "evidence": ["precedent case 2024-118"]}`,
		},
	}

	agents := make([]core.Agent, 0, len(roleSpecs))
	for _, spec := range roleSpecs {
		role, err := core.NewAgentRole(spec.name, spec.roleType, spec.instruction)
		if err != nil {
			return nil, err
		}

		client := mockagent.NewClient()
		client.SetResponses(spec.response)

		agents = append(agents, mockagent.NewAgent(*role, client))
	}

	return agents, nil
}

func loggingEventSink(logger core.Logger) core.EventSink {
	return func(event string, payload map[string]interface{}) {
		logger.Info(event, payload)
	}
}

func printResult(result *core.EvaluationResult) {
	fmt.Printf("task: %s\n", result.TaskID)
	fmt.Printf("decision: %v (confidence %.2f)\n", result.SynthesizedDecision, result.Confidence)
	fmt.Printf("alignment state: %s\n", result.AlignmentSummary.State)
	fmt.Printf("reasoning: %s\n", result.Reasoning)
	fmt.Printf("requires human review: %t\n", result.RequiresHumanReview)
}

func printHITLRequest(request *core.HITLRequest) {
	encoded, err := json.MarshalIndent(request, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "evalcore: failed to encode HITL request: %v\n", err)
		return
	}
	fmt.Println(string(encoded))
}
