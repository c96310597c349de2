// Package pipeline implements the orchestration core for the resume
// generation workflow: a fixed sequence of stages driven one turn at a
// time, with durable checkpointing, session-scoped caching, and a bounded
// validate-repair loop for the format stage.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/dshills/resumeflow/pipeline/store"
)

// ErrTurnBusy is returned when a turn is requested for an owner whose
// previous turn is still in flight. Turns for one owner are serialized;
// the caller should retry after the in-flight turn completes.
var ErrTurnBusy = errors.New("another turn is in flight for this owner")

// PrerequisiteError reports that a stage was considered while its
// dependency flags were false. The orchestrator dispatches stages in
// dependency order, so this is a programming-invariant violation and
// should be unreachable.
type PrerequisiteError struct {
	Stage store.Stage
	Flags store.Flags
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("stage %s dispatched with unmet prerequisites (flags: %+v)", e.Stage, e.Flags)
}

// CapabilityError reports that an external capability call failed or
// timed out during a stage. The stage flag remains false; the workflow is
// resumable and the next turn retries the same stage.
type CapabilityError struct {
	// Stage is the stage whose capability call failed.
	Stage store.Stage

	// Capability names the external capability ("extract", "generate",
	// "validate").
	Capability string

	// Err is the underlying failure.
	Err error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("stage %s: %s capability failed: %v", e.Stage, e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// ExhaustedError reports that the validate-repair loop used its full
// attempt budget without producing a valid candidate. It carries the last
// validator issue for diagnosis; the format flag remains false.
type ExhaustedError struct {
	// Attempts is the number of attempts consumed.
	Attempts int

	// LastIssue is the most recent validator (or precheck) error
	// description.
	LastIssue string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("validation exhausted after %d attempts: %s", e.Attempts, e.LastIssue)
}

// StoreError reports that the record store was unreachable or rejected a
// write. The current turn fails; existing record state is untouched.
type StoreError struct {
	// Op names the failed store operation.
	Op string

	// Err is the underlying failure.
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("record store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
