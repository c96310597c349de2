// Package render provides the structural validator/renderer capability.
//
// The external renderer is the authority on document structure: the format
// stage's validate-repair loop targets its contract. A validation call that
// succeeds also renders, so a Valid result carries the handle of the final
// rendered output.
package render

import "context"

// Result is the outcome of one validation/render call.
//
// Invalid candidates are a normal outcome, not an error; the error return
// of Validate is reserved for transport and service failures.
type Result struct {
	// Valid reports whether the candidate satisfied the renderer's
	// structural contract.
	Valid bool

	// Handle is the opaque handle of the rendered output (e.g., a URL or
	// file path). Set only when Valid.
	Handle string

	// Issue is the renderer's structured error description.
	// Set only when not Valid.
	Issue string
}

// Renderer defines the structural validator/renderer capability.
//
// Calls are treated as expensive and possibly rate-limited; callers must
// not issue more than one call per repair iteration.
type Renderer interface {
	// Validate submits a candidate document description and returns the
	// renderer's verdict. The error return indicates the service could
	// not be reached or failed internally, not that the candidate was
	// structurally invalid.
	Validate(ctx context.Context, candidate string) (Result, error)
}
