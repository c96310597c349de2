package pipeline

import (
	"context"
	"fmt"

	"github.com/dshills/resumeflow/pipeline/emit"
	"github.com/dshills/resumeflow/pipeline/model"
	"github.com/dshills/resumeflow/pipeline/store"
)

const (
	jobDescribeSystem = "You are an expert job-posting analyst. Extract the role title, " +
		"seniority, required skills, preferred skills, and key responsibilities " +
		"from the posting. Respond with a concise JSON object."

	tailorSystem = "You are an expert resume writer. Rewrite the resume content to " +
		"emphasize the experience and skills most relevant to the target job. " +
		"Never invent experience the candidate does not have. Respond with a " +
		"JSON object containing the tailored sections."
)

// runParse extracts plain text from the uploaded document and commits it
// as the resume_text artifact. Extraction for a given document handle is
// cached for the session, so re-submitting the same upload is free.
func (p *Pipeline) runParse(ctx context.Context, sess *session, rec store.Record, sig Signal) error {
	if p.skipCompleted(store.StageParse, rec) {
		return nil
	}

	doc := sig.Document
	cctx, cancel := p.withCapabilityTimeout(ctx, string(store.StageParse))
	defer cancel()

	text, err := sess.cache.GetOrCompute(cctx, ExtractCacheKey(doc.ID), func(ctx context.Context) (string, error) {
		return p.extractor.Extract(ctx, *doc)
	})
	if err != nil {
		return &CapabilityError{Stage: store.StageParse, Capability: "extract", Err: err}
	}

	return p.commitStage(ctx, rec.OwnerID, store.StageParse, text)
}

// runJobDescribe analyzes the job posting text and commits the analysis
// as the job_description artifact.
func (p *Pipeline) runJobDescribe(ctx context.Context, rec store.Record, sig Signal) error {
	if p.skipCompleted(store.StageJobDescribe, rec) {
		return nil
	}

	cctx, cancel := p.withCapabilityTimeout(ctx, string(store.StageJobDescribe))
	defer cancel()

	analysis, err := p.generator.Generate(cctx, model.Request{
		System: jobDescribeSystem,
		Prompt: "Analyze this job posting:\n\n" + sig.JobDescription,
	})
	if err != nil {
		return &CapabilityError{Stage: store.StageJobDescribe, Capability: "generate", Err: err}
	}

	return p.commitStage(ctx, rec.OwnerID, store.StageJobDescribe, analysis)
}

// runTailor rewrites the stored resume text against the stored job
// analysis and commits the result as the tailored_content artifact.
// Inputs come from the durable record, never from transient state, so a
// process restart between stages loses nothing.
func (p *Pipeline) runTailor(ctx context.Context, rec store.Record) error {
	if p.skipCompleted(store.StageTailor, rec) {
		return nil
	}

	cctx, cancel := p.withCapabilityTimeout(ctx, string(store.StageTailor))
	defer cancel()

	prompt := fmt.Sprintf("Resume:\n\n%s\n\nJob analysis:\n\n%s\n\nTailor the resume for this job.",
		rec.Artifacts.ResumeText, rec.Artifacts.JobDescription)
	tailored, err := p.generator.Generate(cctx, model.Request{
		System: tailorSystem,
		Prompt: prompt,
	})
	if err != nil {
		return &CapabilityError{Stage: store.StageTailor, Capability: "generate", Err: err}
	}

	return p.commitStage(ctx, rec.OwnerID, store.StageTailor, tailored)
}

// runRender submits the validated formatted document for final rendering
// and commits the returned handle as the rendered_document artifact. The
// renderer renders as part of validation, so one call suffices.
func (p *Pipeline) runRender(ctx context.Context, rec store.Record) error {
	if p.skipCompleted(store.StageRender, rec) {
		return nil
	}

	cctx, cancel := p.withCapabilityTimeout(ctx, string(store.StageRender))
	defer cancel()

	p.emitter.Emit(emit.Event{OwnerID: rec.OwnerID, Stage: string(store.StageRender), Msg: emit.MsgValidatorCall})
	res, err := p.renderer.Validate(cctx, rec.Artifacts.FormattedDocument)
	if err != nil {
		p.metrics.IncrementValidatorCalls(string(store.StageRender), "error")
		return &CapabilityError{Stage: store.StageRender, Capability: "validate", Err: err}
	}
	if !res.Valid {
		// The document passed validation during the format stage; a
		// rejection here means the renderer's contract changed underneath
		// us. Surface it, leave the flag false, and let a future format
		// re-run reconcile.
		p.metrics.IncrementValidatorCalls(string(store.StageRender), "invalid")
		return &CapabilityError{
			Stage:      store.StageRender,
			Capability: "validate",
			Err:        fmt.Errorf("renderer rejected previously validated document: %s", res.Issue),
		}
	}
	p.metrics.IncrementValidatorCalls(string(store.StageRender), "valid")

	return p.commitStage(ctx, rec.OwnerID, store.StageRender, res.Handle)
}

// skipCompleted is the executors' defensive guard re-check: running a
// completed stage is a no-op that keeps the existing artifact.
func (p *Pipeline) skipCompleted(stage store.Stage, rec store.Record) bool {
	if !ShouldSkip(stage, rec) {
		return false
	}
	p.emitter.Emit(emit.Event{OwnerID: rec.OwnerID, Stage: string(stage), Msg: emit.MsgStageSkipped})
	p.metrics.RecordStageLatency(string(stage), 0, "skipped")
	return true
}
