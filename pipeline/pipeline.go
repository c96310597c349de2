package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/dshills/resumeflow/pipeline/emit"
	"github.com/dshills/resumeflow/pipeline/extract"
	"github.com/dshills/resumeflow/pipeline/model"
	"github.com/dshills/resumeflow/pipeline/render"
	"github.com/dshills/resumeflow/pipeline/store"
)

// Signal carries the user-supplied input accompanying a turn. All fields
// are optional; a stage that needs input it doesn't find reports
// WaitingOn instead of running.
type Signal struct {
	// Document is the uploaded resume document for the parse stage.
	Document *extract.Document

	// JobDescription is the target job posting text for the
	// job-describe stage.
	JobDescription string

	// ConfirmTailor is the explicit go-ahead for the tailor stage. The
	// tailor stage never runs without it, even when all data
	// prerequisites are satisfied.
	ConfirmTailor bool
}

// TurnResult reports the outcome of one Advance call.
type TurnResult struct {
	// Record is the workflow record after the turn.
	Record store.Record

	// StageRan names the stage that executed this turn, or "" when no
	// stage ran.
	StageRan store.Stage

	// WaitingOn describes the user input the next stage needs, when the
	// turn could not proceed without it.
	WaitingOn string

	// Done reports that every stage is complete.
	Done bool
}

// Config assembles a Pipeline's dependencies.
type Config struct {
	// Store persists workflow records. Required.
	Store store.RecordStore

	// Generator produces and repairs content. Required.
	Generator model.Generator

	// Extractor pulls plain text out of uploaded documents. Required.
	Extractor extract.Extractor

	// Renderer validates and renders formatted documents. Required.
	// When it also implements render.SchemaProvider, the format stage
	// fetches (and caches) its schema and template set.
	Renderer render.Renderer

	// Emitter receives observability events. Optional; defaults to a
	// NullEmitter.
	Emitter emit.Emitter

	// Metrics records Prometheus metrics. Optional.
	Metrics *Metrics

	// Options tunes execution behavior. Zero values select defaults.
	Options Options
}

// Pipeline advances owner workflows one stage per turn through the fixed
// sequence parse, job_describe, tailor, format, render. Stage completion
// is durable in the record store; everything else (turn locks, caches) is
// transient and rebuilt on restart.
type Pipeline struct {
	records   store.RecordStore
	generator model.Generator
	extractor extract.Extractor
	renderer  render.Renderer
	emitter   emit.Emitter
	metrics   *Metrics
	sessions  *sessionTable
	opts      Options

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a Pipeline from the given configuration.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Store == nil {
		return nil, errors.New("pipeline: Store is required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("pipeline: Generator is required")
	}
	if cfg.Extractor == nil {
		return nil, errors.New("pipeline: Extractor is required")
	}
	if cfg.Renderer == nil {
		return nil, errors.New("pipeline: Renderer is required")
	}

	emitter := cfg.Emitter
	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}

	opts := cfg.Options
	if opts.DefaultCapabilityTimeout == 0 {
		opts.DefaultCapabilityTimeout = DefaultCapabilityTimeout
	}

	return &Pipeline{
		records:   cfg.Store,
		generator: cfg.Generator,
		extractor: cfg.Extractor,
		renderer:  cfg.Renderer,
		emitter:   emitter,
		metrics:   cfg.Metrics,
		sessions:  newSessionTable(emitter, cfg.Metrics),
		opts:      opts,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// ShouldSkip reports whether a stage is already complete for the record.
// Pure function over the record's flags; both the orchestrator and every
// stage executor consult it, so re-running a completed stage is always a
// safe no-op.
func ShouldSkip(stage store.Stage, rec store.Record) bool {
	return rec.Flags.Done(stage)
}

// Advance runs one turn for an owner: load (or create) the record, find
// the first incomplete stage, and either execute it, report the user
// input it is waiting on, or report the workflow done.
//
// Turns for one owner are serialized: a second concurrent call returns
// ErrTurnBusy without touching the record. Turns for distinct owners run
// in parallel.
func (p *Pipeline) Advance(ctx context.Context, ownerID string, sig Signal) (TurnResult, error) {
	sess, release, err := p.sessions.acquire(ownerID)
	if err != nil {
		return TurnResult{}, err
	}
	defer release()

	p.metrics.TurnStarted()
	defer p.metrics.TurnFinished()

	rec, err := p.loadOrCreate(ctx, ownerID)
	if err != nil {
		return TurnResult{}, err
	}

	stage, found := nextStage(rec)
	if !found {
		p.emitter.Emit(emit.Event{OwnerID: ownerID, Msg: emit.MsgWorkflowDone})
		return TurnResult{Record: rec, Done: true}, nil
	}

	if !rec.Flags.PrerequisitesMet(stage) {
		return TurnResult{Record: rec}, &PrerequisiteError{Stage: stage, Flags: rec.Flags}
	}

	if waiting := missingInput(stage, sig); waiting != "" {
		p.emitter.Emit(emit.Event{
			OwnerID: ownerID,
			Stage:   string(stage),
			Msg:     emit.MsgAwaitingInput,
			Meta:    map[string]interface{}{"waiting_on": waiting},
		})
		return TurnResult{Record: rec, WaitingOn: waiting}, nil
	}

	if err := p.runStage(ctx, sess, rec, stage, sig); err != nil {
		p.recordFailure(ctx, ownerID, stage, err)
		failed, getErr := p.records.Get(context.WithoutCancel(ctx), ownerID)
		if getErr != nil {
			failed = rec
		}
		return TurnResult{Record: failed, StageRan: stage}, err
	}

	updated, err := p.records.Get(ctx, ownerID)
	if err != nil {
		return TurnResult{}, &StoreError{Op: "get", Err: err}
	}
	return TurnResult{Record: updated, StageRan: stage, Done: updated.Flags.Rendered}, nil
}

// loadOrCreate fetches the owner's record, creating it on first contact.
func (p *Pipeline) loadOrCreate(ctx context.Context, ownerID string) (store.Record, error) {
	rec, err := p.records.Get(ctx, ownerID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Record{}, &StoreError{Op: "get", Err: err}
	}

	rec, err = p.records.GetOrCreate(ctx, ownerID)
	if err != nil {
		return store.Record{}, &StoreError{Op: "get_or_create", Err: err}
	}
	p.emitter.Emit(emit.Event{
		OwnerID: ownerID,
		Msg:     emit.MsgRecordCreated,
		Meta:    map[string]interface{}{"record_id": rec.ID},
	})
	return rec, nil
}

// nextStage returns the first stage, in pipeline order, whose completion
// flag is false.
func nextStage(rec store.Record) (store.Stage, bool) {
	for _, stage := range store.Stages() {
		if !rec.Flags.Done(stage) {
			return stage, true
		}
	}
	return "", false
}

// missingInput returns a description of the user input a stage requires
// but the signal doesn't carry, or "" when the stage can run.
func missingInput(stage store.Stage, sig Signal) string {
	switch stage {
	case store.StageParse:
		if sig.Document == nil {
			return "an uploaded resume document"
		}
	case store.StageJobDescribe:
		if sig.JobDescription == "" {
			return "the target job description text"
		}
	case store.StageTailor:
		if !sig.ConfirmTailor {
			return "confirmation to tailor the resume for this job"
		}
	}
	return ""
}

// runStage dispatches the stage executor and records latency metrics.
func (p *Pipeline) runStage(ctx context.Context, sess *session, rec store.Record, stage store.Stage, sig Signal) error {
	p.emitter.Emit(emit.Event{OwnerID: rec.OwnerID, Stage: string(stage), Msg: emit.MsgStageStart})

	start := time.Now()
	var err error
	switch stage {
	case store.StageParse:
		err = p.runParse(ctx, sess, rec, sig)
	case store.StageJobDescribe:
		err = p.runJobDescribe(ctx, rec, sig)
	case store.StageTailor:
		err = p.runTailor(ctx, rec)
	case store.StageFormat:
		err = p.runFormat(ctx, sess, rec)
	case store.StageRender:
		err = p.runRender(ctx, rec)
	default:
		err = fmt.Errorf("unknown stage %q", stage)
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordStageLatency(string(stage), time.Since(start), status)

	if err != nil {
		p.emitter.Emit(emit.Event{
			OwnerID: rec.OwnerID,
			Stage:   string(stage),
			Msg:     emit.MsgStageFailed,
			Meta:    map[string]interface{}{"error": err.Error()},
		})
		return err
	}

	p.emitter.Emit(emit.Event{OwnerID: rec.OwnerID, Stage: string(stage), Msg: emit.MsgStageComplete})
	return nil
}

// recordFailure stores the failure message on the record. Runs under a
// context detached from caller cancellation so an abandoned turn still
// leaves a diagnosable record.
func (p *Pipeline) recordFailure(ctx context.Context, ownerID string, stage store.Stage, err error) {
	msg := fmt.Sprintf("%s: %v", stage, err)
	if setErr := p.records.SetError(context.WithoutCancel(ctx), ownerID, msg); setErr != nil {
		p.emitter.Emit(emit.Event{
			OwnerID: ownerID,
			Stage:   string(stage),
			Msg:     emit.MsgStageFailed,
			Meta:    map[string]interface{}{"error": "failed to record error message: " + setErr.Error()},
		})
	}
}

// commitStage persists an (artifact, flag) pair. Runs under a context
// detached from caller cancellation: a commit that has started completes
// even if the caller disconnects mid-turn.
func (p *Pipeline) commitStage(ctx context.Context, ownerID string, stage store.Stage, artifact string) error {
	if err := p.records.CommitStage(context.WithoutCancel(ctx), ownerID, stage, artifact); err != nil {
		return &StoreError{Op: "commit_stage", Err: err}
	}
	return nil
}

// EndSession discards an owner's transient session state (turn lock and
// cache). Committed record state is unaffected; the next Advance rebuilds
// the session from the store.
//
// A session with a turn in flight is not discarded; EndSession reports
// whether the session is gone.
func (p *Pipeline) EndSession(ownerID string) bool {
	return p.sessions.drop(ownerID)
}

// backoffDelay computes the delay before the next repair attempt.
func (p *Pipeline) backoffDelay(attempt int) time.Duration {
	if p.opts.Repair.BaseDelay <= 0 {
		return 0
	}
	maxDelay := p.opts.Repair.MaxDelay
	if maxDelay < p.opts.Repair.BaseDelay {
		maxDelay = p.opts.Repair.BaseDelay
	}
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	return computeBackoff(attempt, p.opts.Repair.BaseDelay, maxDelay, p.rng)
}

// sleepCtx waits for the delay or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
