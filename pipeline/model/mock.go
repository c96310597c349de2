package model

import (
	"context"
	"sync"
)

// MockGenerator is a test implementation of Generator.
//
// Use MockGenerator in tests to verify stage behavior without making
// actual LLM API calls. It provides:
//   - Configurable response sequences
//   - Call history tracking
//   - Error injection
//   - Thread-safe operation
//
// Example:
//
//	mock := &MockGenerator{
//	    Responses: []string{"first", "second"},
//	}
//	out, err := mock.Generate(ctx, model.Request{Prompt: "hi"})
//	// Returns "first", then "second" on subsequent calls;
//	// the last response repeats once the sequence is consumed.
//
// Example with error injection:
//
//	mock := &MockGenerator{Err: errors.New("API error")}
//	_, err := mock.Generate(ctx, req)
//	// Returns the configured error
type MockGenerator struct {
	// Responses contains the sequence of responses to return in order.
	// When consumed, the last response repeats.
	Responses []string

	// Err, if set, is returned by Generate instead of a response.
	Err error

	// Calls tracks every Generate invocation for assertions.
	Calls []Request

	mu        sync.Mutex
	callIndex int
}

// Generate implements the Generator interface.
//
// Always records the call in Calls, regardless of success or failure.
func (m *MockGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if m.Err != nil {
		return "", m.Err
	}

	if len(m.Responses) == 0 {
		return "", nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	m.callIndex++

	return m.Responses[idx], nil
}

// CallCount returns the number of Generate invocations so far.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
