package extract

import (
	"context"
	"sync"
)

// MockExtractor is a test implementation of Extractor.
//
// It returns a configured text (or error) and records every call, so
// tests can assert extraction happened exactly once per document.
type MockExtractor struct {
	// Text is returned by Extract on success.
	Text string

	// Err, if set, is returned instead of Text.
	Err error

	// Calls tracks the documents passed to Extract.
	Calls []Document

	mu sync.Mutex
}

// Extract implements the Extractor interface.
func (m *MockExtractor) Extract(ctx context.Context, doc Document) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, doc)

	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}

// CallCount returns the number of Extract invocations so far.
func (m *MockExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
