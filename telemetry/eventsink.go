package telemetry

import (
	"fmt"

	"github.com/vikramwani/agentalign/core"
)

// OTelEventSink adapts a core.EventSink so that every emitted event is also
// reported to telemetry. It lets the orchestrator, alignment engine, and HITL
// builder emit their normal event-name/payload pairs while telemetry-enabled
// deployments additionally get them recorded.
//
// Construct with the sink to wrap (commonly core.NoOpEventSink or a logging
// sink); the returned EventSink first calls the wrapped sink, then calls
// telemetry.RecordMetric("event."+name, 1, labels) with every payload value
// stringified into a label. The event is not attached to any span already
// open for the evaluation.
func OTelEventSink(telemetry core.Telemetry, wrapped core.EventSink) core.EventSink {
	if wrapped == nil {
		wrapped = core.NoOpEventSink
	}

	return func(event string, payload map[string]interface{}) {
		wrapped(event, payload)

		if telemetry == nil {
			return
		}

		labels := make(map[string]string, len(payload))
		for k, v := range payload {
			labels[k] = toLabel(v)
		}
		telemetry.RecordMetric("event."+event, 1, labels)
	}
}

func toLabel(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
