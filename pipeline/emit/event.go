package emit

// Event represents an observability event emitted during pipeline execution.
//
// Events provide insight into turn behavior:
//   - Stage dispatch, completion, skip, and failure
//   - Cache hits and misses
//   - Validator round-trips and repair attempts
//   - Record creation and turns waiting on user input
//
// Events are emitted to an Emitter which can log to a writer, create
// OpenTelemetry spans, or buffer events for inspection in tests.
type Event struct {
	// OwnerID identifies the session owner whose turn emitted this event.
	OwnerID string

	// Stage identifies the pipeline stage that emitted this event.
	// Empty for turn-level events (record creation, waiting, done).
	Stage string

	// Msg is the event name. Use the Msg* constants for standard events.
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "duration_ms": Stage execution duration in milliseconds
	//   - "error": Error details
	//   - "cache_key": Cache operation key
	//   - "attempt": Repair attempt number
	Meta map[string]interface{}
}

// Standard event names.
const (
	MsgRecordCreated = "record_created"
	MsgStageStart    = "stage_start"
	MsgStageComplete = "stage_complete"
	MsgStageSkipped  = "stage_skipped"
	MsgStageFailed   = "stage_failed"
	MsgCacheHit      = "cache_hit"
	MsgCacheMiss     = "cache_miss"
	MsgValidatorCall = "validator_call"
	MsgRepairAttempt = "repair_attempt"
	MsgAwaitingInput = "awaiting_input"
	MsgWorkflowDone  = "workflow_done"
)
