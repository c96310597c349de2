package pipeline

import (
	"math/rand"
	"testing"
	"time"

	"github.com/dshills/resumeflow/pipeline/extract"
	"github.com/dshills/resumeflow/pipeline/model"
	"github.com/dshills/resumeflow/pipeline/render"
	"github.com/dshills/resumeflow/pipeline/store"
)

func TestRepairPolicyAttempts(t *testing.T) {
	if got := (RepairPolicy{}).attempts(); got != DefaultMaxRepairAttempts {
		t.Errorf("zero policy: expected %d, got %d", DefaultMaxRepairAttempts, got)
	}
	if got := (RepairPolicy{MaxAttempts: 7}).attempts(); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
	if got := (RepairPolicy{MaxAttempts: -1}).attempts(); got != DefaultMaxRepairAttempts {
		t.Errorf("negative: expected %d, got %d", DefaultMaxRepairAttempts, got)
	}
}

func TestComputeBackoff(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	base := 100 * time.Millisecond
	maxDelay := 1 * time.Second

	for attempt := 0; attempt < 6; attempt++ {
		delay := computeBackoff(attempt, base, maxDelay, rng)

		expected := base * (1 << attempt)
		if expected > maxDelay {
			expected = maxDelay
		}
		if delay < expected {
			t.Errorf("attempt %d: delay %v below exponential floor %v", attempt, delay, expected)
		}
		if delay >= expected+base {
			t.Errorf("attempt %d: delay %v exceeds floor plus jitter %v", attempt, delay, expected+base)
		}
	}
}

func TestCapabilityTimeoutPrecedence(t *testing.T) {
	p := &Pipeline{opts: Options{
		DefaultCapabilityTimeout: 30 * time.Second,
		StagePolicies: map[string]StagePolicy{
			"format": {Timeout: 2 * time.Minute},
			"render": {Timeout: -1},
		},
	}}

	if got := p.capabilityTimeout("format"); got != 2*time.Minute {
		t.Errorf("stage override: expected 2m, got %v", got)
	}
	if got := p.capabilityTimeout("parse"); got != 30*time.Second {
		t.Errorf("default: expected 30s, got %v", got)
	}
	if got := p.capabilityTimeout("render"); got != 0 {
		t.Errorf("negative stage override: expected unbounded (0), got %v", got)
	}

	unbounded := &Pipeline{opts: Options{DefaultCapabilityTimeout: -1}}
	if got := unbounded.capabilityTimeout("parse"); got != 0 {
		t.Errorf("negative default: expected unbounded (0), got %v", got)
	}
}

func TestNewAppliesDefaultCapabilityTimeout(t *testing.T) {
	cfg := Config{
		Store:     store.NewMemStore(),
		Generator: &model.MockGenerator{},
		Extractor: &extract.MockExtractor{},
		Renderer:  &render.MockRenderer{},
	}

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := p.capabilityTimeout("parse"); got != DefaultCapabilityTimeout {
		t.Errorf("zero options: expected %v, got %v", DefaultCapabilityTimeout, got)
	}

	cfg.Options.DefaultCapabilityTimeout = -1
	p, err = New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := p.capabilityTimeout("parse"); got != 0 {
		t.Errorf("explicit opt-out: expected unbounded (0), got %v", got)
	}
}
