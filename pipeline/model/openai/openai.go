// Package openai adapts OpenAI's API to the pipeline's Generator interface.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/dshills/resumeflow/pipeline/model"
)

// DefaultModel is used when no model name is supplied.
const DefaultModel = "gpt-4o-mini"

// Generator implements model.Generator using OpenAI's chat completions.
//
// The underlying SDK client is safe for concurrent use.
//
// Example:
//
//	gen, err := openai.NewGenerator(os.Getenv("OPENAI_API_KEY"), "gpt-4o")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := gen.Generate(ctx, model.Request{Prompt: "..."})
type Generator struct {
	client *openai.Client
	model  string
}

// NewGenerator creates a new OpenAI-backed generator.
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

	client := openai.NewClient(option.WithAPIKey(apiKey))
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

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessageParamUnion{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(req.System),
				},
			},
		})
	}
	messages = append(messages, openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfString: openai.String(req.Prompt),
			},
		},
	})

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(g.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai generation failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("no response from OpenAI API")
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
