package pipeline

import (
	"math/rand"
	"time"
)

// DefaultMaxRepairAttempts bounds the validate-repair loop when Options
// doesn't override it.
const DefaultMaxRepairAttempts = 3

// DefaultCapabilityTimeout bounds every external capability call when
// Options doesn't override it. Sized for the slowest capability (model
// generation of a full document).
const DefaultCapabilityTimeout = 2 * time.Minute

// RepairPolicy configures the format stage's validate-repair loop.
//
// The loop terminates after MaxAttempts regardless of validator behavior;
// there is no unbounded retry anywhere in the pipeline.
type RepairPolicy struct {
	// MaxAttempts is the maximum number of candidate attempts, counting
	// the initial generation. Must be >= 1; 0 selects
	// DefaultMaxRepairAttempts.
	MaxAttempts int

	// BaseDelay is the base delay for exponential backoff between repair
	// attempts. Zero disables backoff (useful in tests).
	BaseDelay time.Duration

	// MaxDelay caps the exponential backoff growth. Must be >= BaseDelay
	// when backoff is enabled.
	MaxDelay time.Duration
}

// attempts returns the effective attempt budget.
func (p RepairPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return DefaultMaxRepairAttempts
	}
	return p.MaxAttempts
}

// StagePolicy configures per-stage execution behavior.
type StagePolicy struct {
	// Timeout overrides Options.DefaultCapabilityTimeout for this stage's
	// external capability call. Zero falls back to the default; negative
	// removes the bound for this stage.
	Timeout time.Duration
}

// Options configures pipeline execution behavior.
//
// Zero values are valid; the pipeline applies sensible defaults.
type Options struct {
	// Repair configures the format stage's validate-repair loop.
	Repair RepairPolicy

	// DefaultCapabilityTimeout bounds every external capability call.
	// Zero selects DefaultCapabilityTimeout; a negative value removes the
	// bound entirely (use with caution).
	DefaultCapabilityTimeout time.Duration

	// StagePolicies holds per-stage overrides keyed by stage name.
	StagePolicies map[string]StagePolicy
}

// computeBackoff calculates the delay before the next repair attempt
// using exponential backoff with jitter:
//
//	delay = min(base * 2^attempt, maxDelay) + jitter(0, base)
//
// The exponential component reduces load on a struggling validator; the
// jitter spreads concurrent sessions' retries apart.
func computeBackoff(attempt int, base, maxDelay time.Duration, rng *rand.Rand) time.Duration {
	exponentialDelay := base * (1 << attempt)

	if exponentialDelay > maxDelay {
		exponentialDelay = maxDelay
	}

	jitter := time.Duration(0)
	if base > 0 && rng != nil {
		jitter = time.Duration(rng.Int63n(int64(base)))
	}

	return exponentialDelay + jitter
}
