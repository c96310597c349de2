// Package google adapts Google's Gemini API to the pipeline's Generator
// interface.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dshills/resumeflow/pipeline/model"
)

// DefaultModel is used when no model name is supplied.
const DefaultModel = "gemini-1.5-flash"

// Generator implements model.Generator using Google's Gemini API.
//
// Example:
//
//	gen, err := google.NewGenerator(ctx, os.Getenv("GOOGLE_API_KEY"), "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gen.Close()
//
//	out, err := gen.Generate(ctx, model.Request{Prompt: "..."})
type Generator struct {
	client *genai.Client
	model  string
}

// NewGenerator creates a new Gemini-backed generator.
//
// Returns an error if apiKey is empty. An empty model name selects
// DefaultModel.
func NewGenerator(ctx context.Context, apiKey, modelName string) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("API key cannot be empty")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Generator{
		client: client,
		model:  modelName,
	}, nil
}

// Close releases the underlying client's resources.
func (g *Generator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Generate implements model.Generator.
func (g *Generator) Generate(ctx context.Context, req model.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m := g.client.GenerativeModel(g.model)
	if req.System != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", errors.New("no text content in Gemini response")
	}
	return out, nil
}
