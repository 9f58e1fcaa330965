package core

// Event names emitted through an EventSink. This is the complete, closed
// set: no component emits an event name outside this list.
const (
	EventAlignmentAnalysisStarted      = "alignment_analysis_started"
	EventAlignmentAnalysisCompleted    = "alignment_analysis_completed"
	EventDisagreementResolutionStarted = "disagreement_resolution_started"
	EventDisagreementResolutionDone    = "disagreement_resolution_completed"
	EventMultiAgentEvaluationStarted   = "multi_agent_evaluation_started"
	EventExecutingAgent                = "executing_agent"
	EventAgentRetry                    = "agent_retry"
	EventAgentExecutionFailed          = "agent_execution_failed"
	EventPartialAgentFailure           = "partial_agent_failure"
	EventMultiAgentEvaluationDone      = "multi_agent_evaluation_completed"
	EventMultiAgentEvaluationFailed    = "multi_agent_evaluation_failed"
	EventHITLEscalationNotRequired     = "hitl_escalation_not_required"
	EventHITLEscalationTriggered       = "hitl_escalation_triggered"
)

// Environment variable names read by Thresholds/OrchestratorConfig's
// LoadFromEnv layer.
const (
	EnvLogLevel  = "EVALCORE_LOG_LEVEL"
	EnvLogFormat = "EVALCORE_LOG_FORMAT"
	EnvDevMode   = "EVALCORE_DEV_MODE"

	EnvSoftDisagreementSpread = "EVALCORE_SOFT_DISAGREEMENT_SPREAD"
	EnvHardDisagreementSpread = "EVALCORE_HARD_DISAGREEMENT_SPREAD"
	EnvInsufficientSignalAvg  = "EVALCORE_INSUFFICIENT_SIGNAL_AVG_CONFIDENCE"
	EnvMinConfidenceConsensus = "EVALCORE_MIN_CONFIDENCE_FOR_CONSENSUS"
	EnvScalarToleranceRatio   = "EVALCORE_SCALAR_TOLERANCE_RATIO"
	EnvReasoningOverlap       = "EVALCORE_REASONING_OVERLAP_THRESHOLD"
	EnvEvidenceConsistency    = "EVALCORE_EVIDENCE_CONSISTENCY_THRESHOLD"

	EnvMaxRetries     = "EVALCORE_MAX_RETRIES"
	EnvAgentTimeout   = "EVALCORE_AGENT_TIMEOUT_SECONDS"
	EnvEnableHITL     = "EVALCORE_ENABLE_HITL"
	EnvConcurrencyCap = "EVALCORE_CONCURRENCY_CAP"

	EnvOTELEndpoint    = "EVALCORE_OTEL_ENDPOINT"
	EnvOTELProvider    = "EVALCORE_OTEL_PROVIDER"
	EnvEnableTracing   = "EVALCORE_ENABLE_TRACING"
	EnvEnableMetrics   = "EVALCORE_ENABLE_METRICS"
)
