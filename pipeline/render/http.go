package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPRenderer implements Renderer against an external rendering service
// over HTTP.
//
// Contract:
//   - POST {baseURL}/render with body {"document": "<candidate>"}
//   - 200: {"url": "<handle>"}: candidate is valid, rendering done
//   - 422: {"error": "<description>"}: candidate structurally invalid
//   - anything else: service failure (returned as an error)
//
// The 422 response maps to an Invalid result rather than an error, so the
// validate-repair loop can consume the description directly.
type HTTPRenderer struct {
	baseURL string
	client  *http.Client
}

// NewHTTPRenderer creates a renderer client for the given service base URL.
//
// If client is nil, a default client with a 60-second timeout is used
// (rendering is slow; per-call deadlines still come from ctx).
func NewHTTPRenderer(baseURL string, client *http.Client) *HTTPRenderer {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPRenderer{
		baseURL: baseURL,
		client:  client,
	}
}

// Validate implements the Renderer interface.
func (r *HTTPRenderer) Validate(ctx context.Context, candidate string) (Result, error) {
	body, err := json.Marshal(map[string]string{"document": candidate})
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("render service unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read render response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var out struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return Result{}, fmt.Errorf("malformed render response: %w", err)
		}
		return Result{Valid: true, Handle: out.URL}, nil

	case http.StatusUnprocessableEntity:
		var out struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return Result{}, fmt.Errorf("malformed validation response: %w", err)
		}
		return Result{Valid: false, Issue: out.Error}, nil

	default:
		return Result{}, fmt.Errorf("render service returned status %d: %s", resp.StatusCode, data)
	}
}
