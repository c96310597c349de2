package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// SchemaProvider is an optional capability a Renderer may implement to
// expose its structural schema and template set. Both are static for the
// lifetime of a service deployment, so callers should cache the results.
type SchemaProvider interface {
	// Schema returns the renderer's document schema description.
	Schema(ctx context.Context) (string, error)

	// Templates returns the renderer's available template set.
	Templates(ctx context.Context) (string, error)
}

// Schema implements SchemaProvider via GET {baseURL}/schema.
func (r *HTTPRenderer) Schema(ctx context.Context) (string, error) {
	return r.getText(ctx, "/schema")
}

// Templates implements SchemaProvider via GET {baseURL}/templates.
func (r *HTTPRenderer) Templates(ctx context.Context) (string, error) {
	return r.getText(ctx, "/templates")
}

func (r *HTTPRenderer) getText(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", path, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("render service unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response for %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("render service returned %d for %s", resp.StatusCode, path)
	}
	return string(data), nil
}

// MockSchemaProvider is a test implementation of SchemaProvider with call
// counting, for asserting that schema and template fetches are cached.
type MockSchemaProvider struct {
	// SchemaText is returned by Schema.
	SchemaText string

	// TemplatesText is returned by Templates.
	TemplatesText string

	// Err, if set, is returned by both methods.
	Err error

	mu            sync.Mutex
	schemaCalls   int
	templateCalls int
}

// Schema implements the SchemaProvider interface.
func (m *MockSchemaProvider) Schema(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.schemaCalls++
	m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	return m.SchemaText, nil
}

// Templates implements the SchemaProvider interface.
func (m *MockSchemaProvider) Templates(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.templateCalls++
	m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	return m.TemplatesText, nil
}

// SchemaCalls returns the number of Schema invocations so far.
func (m *MockSchemaProvider) SchemaCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schemaCalls
}

// TemplateCalls returns the number of Templates invocations so far.
func (m *MockSchemaProvider) TemplateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.templateCalls
}
