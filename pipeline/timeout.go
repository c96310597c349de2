package pipeline

import (
	"context"
	"time"
)

// capabilityTimeout determines the timeout for a stage's external
// capability call based on precedence:
//  1. StagePolicy.Timeout (per-stage override)
//  2. Options.DefaultCapabilityTimeout (New defaults this when unset)
//
// A negative value at either level means unbounded and yields 0.
func (p *Pipeline) capabilityTimeout(stage string) time.Duration {
	if policy, ok := p.opts.StagePolicies[stage]; ok && policy.Timeout != 0 {
		if policy.Timeout < 0 {
			return 0
		}
		return policy.Timeout
	}
	if p.opts.DefaultCapabilityTimeout < 0 {
		return 0
	}
	return p.opts.DefaultCapabilityTimeout
}

// withCapabilityTimeout derives a bounded context for an external
// capability call. The returned cancel must always be called.
//
// A deadline exceeded inside the call surfaces as an ordinary capability
// failure: the record is left unmodified and the next turn retries.
func (p *Pipeline) withCapabilityTimeout(ctx context.Context, stage string) (context.Context, context.CancelFunc) {
	timeout := p.capabilityTimeout(stage)
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
