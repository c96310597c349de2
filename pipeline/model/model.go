// Package model provides the content-generation capability interface and
// its LLM provider adapters.
package model

import "context"

// Generator defines the content-generation capability the pipeline consumes.
//
// The pipeline treats generation as opaque: given a prompt context, produce
// text. Output is non-deterministic and fallible. No retry is implicit at
// this boundary; retry policy belongs to the calling stage (only the
// format stage's validate-repair loop retries).
//
// Implementations should:
//   - Handle provider-specific authentication
//   - Respect context cancellation and timeouts
//   - Return errors rather than empty output on failure
//
// Adapters for OpenAI, Anthropic, and Google Gemini live in the openai,
// anthropic, and google subpackages. MockGenerator supports tests.
type Generator interface {
	// Generate produces text for the given request.
	Generate(ctx context.Context, req Request) (string, error)
}

// Request carries the prompt context for one generation call.
type Request struct {
	// System sets the generation role and constraints (may be empty).
	System string

	// Prompt is the user-level instruction plus any input artifacts.
	Prompt string
}
