package pipeline

import (
	"context"
	"fmt"

	"github.com/dshills/resumeflow/pipeline/emit"
	"github.com/dshills/resumeflow/pipeline/model"
	"github.com/dshills/resumeflow/pipeline/render"
	"github.com/dshills/resumeflow/pipeline/store"
)

const formatSystem = "You are an expert at producing RenderCV-style YAML resume " +
	"documents. Output only a YAML document: a root mapping with a 'cv' key " +
	"containing name, email, optional website, and sections. Dates are " +
	"YYYY-MM or the literal 'present'. Highlights are lists of strings."

// runFormat converts the tailored content into a renderer-conformant YAML
// document through a bounded generate, validate, repair cycle.
//
// Each iteration consumes one candidate from the attempt budget. A
// candidate that fails the local precheck burns its attempt without
// touching the external validator; otherwise the validator is called
// exactly once for it. On a Valid verdict the candidate is committed; when
// the budget runs out the stage fails with ExhaustedError and the
// formatted flag stays false.
func (p *Pipeline) runFormat(ctx context.Context, sess *session, rec store.Record) error {
	if p.skipCompleted(store.StageFormat, rec) {
		return nil
	}

	schema, templates, err := p.rendererContract(ctx, sess)
	if err != nil {
		return err
	}

	candidate, err := p.generateCandidate(ctx, rec, schema, templates)
	if err != nil {
		return err
	}

	budget := p.opts.Repair.attempts()
	lastIssue := ""
	for attempt := 0; attempt < budget; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, p.backoffDelay(attempt-1)); err != nil {
				return &CapabilityError{Stage: store.StageFormat, Capability: "generate", Err: err}
			}
			candidate, err = p.repairCandidate(ctx, rec, candidate, lastIssue, schema, templates)
			if err != nil {
				return err
			}
		}

		if ok, issue := render.Precheck(candidate); !ok {
			lastIssue = "precheck: " + issue
			continue
		}

		p.emitter.Emit(emit.Event{
			OwnerID: rec.OwnerID,
			Stage:   string(store.StageFormat),
			Msg:     emit.MsgValidatorCall,
			Meta:    map[string]interface{}{"attempt": attempt + 1},
		})
		cctx, cancel := p.withCapabilityTimeout(ctx, string(store.StageFormat))
		res, verr := p.renderer.Validate(cctx, candidate)
		cancel()
		if verr != nil {
			p.metrics.IncrementValidatorCalls(string(store.StageFormat), "error")
			return &CapabilityError{Stage: store.StageFormat, Capability: "validate", Err: verr}
		}
		if res.Valid {
			p.metrics.IncrementValidatorCalls(string(store.StageFormat), "valid")
			return p.commitStage(ctx, rec.OwnerID, store.StageFormat, candidate)
		}
		p.metrics.IncrementValidatorCalls(string(store.StageFormat), "invalid")
		lastIssue = res.Issue
	}

	return &ExhaustedError{Attempts: budget, LastIssue: lastIssue}
}

// rendererContract fetches the renderer's schema and template set when
// the renderer exposes them. Both are static per deployment, so they are
// cached for the session.
func (p *Pipeline) rendererContract(ctx context.Context, sess *session) (schema, templates string, err error) {
	provider, ok := p.renderer.(render.SchemaProvider)
	if !ok {
		return "", "", nil
	}

	schema, err = sess.cache.GetOrCompute(ctx, CacheKeySchema, provider.Schema)
	if err != nil {
		return "", "", &CapabilityError{Stage: store.StageFormat, Capability: "schema", Err: err}
	}
	templates, err = sess.cache.GetOrCompute(ctx, CacheKeyTemplates, provider.Templates)
	if err != nil {
		return "", "", &CapabilityError{Stage: store.StageFormat, Capability: "templates", Err: err}
	}
	return schema, templates, nil
}

// generateCandidate produces the initial YAML candidate from the stored
// tailored content.
func (p *Pipeline) generateCandidate(ctx context.Context, rec store.Record, schema, templates string) (string, error) {
	cctx, cancel := p.withCapabilityTimeout(ctx, string(store.StageFormat))
	defer cancel()

	candidate, err := p.generator.Generate(cctx, model.Request{
		System: formatSystem,
		Prompt: formatPrompt(rec.Artifacts.TailoredContent, schema, templates),
	})
	if err != nil {
		return "", &CapabilityError{Stage: store.StageFormat, Capability: "generate", Err: err}
	}
	return candidate, nil
}

// repairCandidate produces a revised candidate that addresses the
// reported issue, rather than regenerating blind.
func (p *Pipeline) repairCandidate(ctx context.Context, rec store.Record, candidate, issue, schema, templates string) (string, error) {
	p.metrics.IncrementRepairAttempts(string(store.StageFormat))
	p.emitter.Emit(emit.Event{
		OwnerID: rec.OwnerID,
		Stage:   string(store.StageFormat),
		Msg:     emit.MsgRepairAttempt,
		Meta:    map[string]interface{}{"issue": issue},
	})

	cctx, cancel := p.withCapabilityTimeout(ctx, string(store.StageFormat))
	defer cancel()

	prompt := fmt.Sprintf("This YAML document failed validation.\n\nDocument:\n%s\n\nValidation error:\n%s\n\nFix only what the error describes and output the corrected YAML document.",
		candidate, issue)
	if schema != "" {
		prompt += "\n\nSchema:\n" + schema
	}

	repaired, err := p.generator.Generate(cctx, model.Request{
		System: formatSystem,
		Prompt: prompt,
	})
	if err != nil {
		return "", &CapabilityError{Stage: store.StageFormat, Capability: "generate", Err: err}
	}
	return repaired, nil
}

func formatPrompt(tailored, schema, templates string) string {
	prompt := "Produce a YAML resume document from this tailored content:\n\n" + tailored
	if schema != "" {
		prompt += "\n\nConform to this schema:\n" + schema
	}
	if templates != "" {
		prompt += "\n\nAvailable templates:\n" + templates
	}
	return prompt
}
