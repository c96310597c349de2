package render

import (
	"context"
	"sync"
)

// MockRenderer is a test implementation of Renderer.
//
// Configure a sequence of results to script validator behavior, e.g.
// Invalid twice then Valid, and assert on the exact number of calls.
//
// Example:
//
//	mock := &MockRenderer{
//	    Results: []Result{
//	        {Issue: "missing cv.name"},
//	        {Issue: "bad date format"},
//	        {Valid: true, Handle: "out/final.pdf"},
//	    },
//	}
type MockRenderer struct {
	// Results contains the sequence of results to return in order.
	// When consumed, the last result repeats.
	Results []Result

	// Err, if set, is returned by Validate instead of a result.
	Err error

	// Calls tracks the candidates passed to Validate.
	Calls []string

	mu        sync.Mutex
	callIndex int
}

// Validate implements the Renderer interface.
//
// Always records the call in Calls, regardless of outcome.
func (m *MockRenderer) Validate(ctx context.Context, candidate string) (Result, error) {
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, candidate)

	if m.Err != nil {
		return Result{}, m.Err
	}

	if len(m.Results) == 0 {
		return Result{Valid: true}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Results) {
		idx = len(m.Results) - 1
	}
	m.callIndex++

	return m.Results[idx], nil
}

// CallCount returns the number of Validate invocations so far.
func (m *MockRenderer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
