// Package store provides durable persistence for workflow records.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record exists for the requested owner ID.
var ErrNotFound = errors.New("record not found")

// Stage identifies one discrete unit of pipeline work. Each stage has a
// single completion flag and a single artifact slot on the Record.
type Stage string

// Pipeline stages in fixed execution order.
const (
	StageParse       Stage = "parse"
	StageJobDescribe Stage = "job_describe"
	StageTailor      Stage = "tailor"
	StageFormat      Stage = "format"
	StageRender      Stage = "render"
)

// Stages returns all pipeline stages in dependency order.
//
// The order is significant: a stage may only run when every stage before it
// has completed. Callers must not mutate the returned slice.
func Stages() []Stage {
	return []Stage{StageParse, StageJobDescribe, StageTailor, StageFormat, StageRender}
}

// Status describes how far a record has progressed. It is always derived
// from the completion flags and never stored independently, so it cannot
// diverge from them.
type Status string

// Derived record statuses, in order of progression.
const (
	StatusCreated      Status = "created"
	StatusParsed       Status = "parsed"
	StatusJobDescribed Status = "job_described"
	StatusTailored     Status = "tailored"
	StatusFormatted    Status = "formatted"
	StatusRendered     Status = "rendered"
)

// Flags holds the per-stage completion state for a record.
//
// Flags are monotonic: once set, a flag is never cleared by normal
// operation. The dependency chain is:
//
//	Tailored  implies Parsed and JobDescribed
//	Formatted implies Tailored
//	Rendered  implies Formatted
type Flags struct {
	Parsed       bool `json:"parsed"`
	JobDescribed bool `json:"jobDescribed"`
	Tailored     bool `json:"tailored"`
	Formatted    bool `json:"formatted"`
	Rendered     bool `json:"rendered"`
}

// Done reports whether the given stage has completed.
func (f Flags) Done(stage Stage) bool {
	switch stage {
	case StageParse:
		return f.Parsed
	case StageJobDescribe:
		return f.JobDescribed
	case StageTailor:
		return f.Tailored
	case StageFormat:
		return f.Formatted
	case StageRender:
		return f.Rendered
	}
	return false
}

// PrerequisitesMet reports whether every stage the given stage depends on
// has completed. Parse and job-describe are independent roots; tailor needs
// both; format and render chain linearly after that.
func (f Flags) PrerequisitesMet(stage Stage) bool {
	switch stage {
	case StageParse, StageJobDescribe:
		return true
	case StageTailor:
		return f.Parsed && f.JobDescribed
	case StageFormat:
		return f.Tailored
	case StageRender:
		return f.Formatted
	}
	return false
}

// Artifacts holds the large per-stage output payloads, kept out-of-band
// from transient session state so interaction context stays small.
type Artifacts struct {
	// ResumeText is the plain text extracted from the uploaded document.
	ResumeText string `json:"resumeText,omitempty"`

	// JobDescription is the analyzed job description text.
	JobDescription string `json:"jobDescription,omitempty"`

	// TailoredContent is the tailored content as a JSON document.
	TailoredContent string `json:"tailoredContent,omitempty"`

	// FormattedDocument is the structured document description that passed
	// the external validator.
	FormattedDocument string `json:"formattedDocument,omitempty"`

	// RenderedDocument is an opaque handle to the final rendered output
	// (e.g., a file path or URL). Its byte format is the renderer's concern.
	RenderedDocument string `json:"renderedDocument,omitempty"`
}

// For returns the artifact stored for the given stage.
func (a Artifacts) For(stage Stage) string {
	switch stage {
	case StageParse:
		return a.ResumeText
	case StageJobDescribe:
		return a.JobDescription
	case StageTailor:
		return a.TailoredContent
	case StageFormat:
		return a.FormattedDocument
	case StageRender:
		return a.RenderedDocument
	}
	return ""
}

// Record is the durable per-session workflow record: the single source of
// truth for completion flags and large artifacts.
//
// ID and OwnerID are set exactly once at creation and never mutated.
// At most one artifact exists per stage; a new artifact for a stage
// overwrites the previous one.
type Record struct {
	// ID is the opaque unique record identifier, generated at creation.
	ID string `json:"id"`

	// OwnerID identifies the requesting actor. One record per owner.
	OwnerID string `json:"ownerId"`

	// Flags is the per-stage completion state.
	Flags Flags `json:"flags"`

	// Artifacts holds per-stage output payloads.
	Artifacts Artifacts `json:"artifacts"`

	// ErrorMessage records the most recent unrecoverable stage failure.
	// Cleared when a stage subsequently succeeds.
	ErrorMessage string `json:"errorMessage,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Status derives the record's progression from its flags.
//
// Status is a pure function of Flags. The furthest stage in dependency
// order whose flag is set determines the status.
func (r Record) Status() Status {
	switch {
	case r.Flags.Rendered:
		return StatusRendered
	case r.Flags.Formatted:
		return StatusFormatted
	case r.Flags.Tailored:
		return StatusTailored
	case r.Flags.JobDescribed:
		return StatusJobDescribed
	case r.Flags.Parsed:
		return StatusParsed
	}
	return StatusCreated
}

// RecordStore persists workflow records keyed by owner ID.
//
// Implementations must guarantee that CommitStage writes the stage artifact
// and flips the stage flag as one atomic operation: a failure must leave the
// record in its prior, wholly-valid state. Either both changes are visible
// or neither is.
//
// Concurrent access across distinct owner IDs must be supported without
// contention; turn serialization for a single owner is the caller's
// responsibility.
//
// Implementations in this package:
//   - MemStore: in-memory, for tests and single-process use
//   - SQLiteStore: single-file database via modernc.org/sqlite
//   - MySQLStore: shared database via go-sql-driver/mysql
type RecordStore interface {
	// GetOrCreate returns the record for the owner, creating it with all
	// flags false if none exists. Idempotent: calling it when a record
	// already exists returns the existing record unchanged.
	GetOrCreate(ctx context.Context, ownerID string) (Record, error)

	// Get returns the record for the owner, or ErrNotFound.
	Get(ctx context.Context, ownerID string) (Record, error)

	// CommitStage atomically writes the stage's artifact, sets its
	// completion flag, and clears any prior error message.
	CommitStage(ctx context.Context, ownerID string, stage Stage, artifact string) error

	// SetError records a stage failure message without touching flags or
	// artifacts.
	SetError(ctx context.Context, ownerID string, msg string) error
}
