// Package anthropic adapts Anthropic's Claude API to the pipeline's
// Generator interface.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dshills/resumeflow/pipeline/model"
)

// DefaultModel is used when no model name is supplied.
const DefaultModel = "claude-3-5-sonnet-latest"

// maxTokens caps the response size of a single generation call.
const maxTokens = 4096

// Generator implements model.Generator using Anthropic's Messages API.
//
// The underlying SDK client is safe for concurrent use.
//
// Example:
//
//	gen, err := anthropic.NewGenerator(os.Getenv("ANTHROPIC_API_KEY"), "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := gen.Generate(ctx, model.Request{Prompt: "..."})
type Generator struct {
	client *anthropic.Client
	model  string
}

// NewGenerator creates a new Claude-backed generator.
//
// Returns an error if apiKey is empty. An empty model name selects
// DefaultModel.
func NewGenerator(apiKey, modelName string) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("API key cannot be empty")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Generator{
		client: &client,
		model:  modelName,
	}, nil
}

// Generate implements model.Generator.
func (g *Generator) Generate(ctx context.Context, req model.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}

	message, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic generation failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", errors.New("no text content in Claude response")
	}
	return out, nil
}
