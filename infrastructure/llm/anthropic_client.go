package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"ragdocs/domain"
)

// DefaultAnthropicModel is used when the configuration names no model.
const DefaultAnthropicModel = string(anthropic.ModelClaude3_7SonnetLatest)

// AnthropicClient implements domain.LLMClient on the Anthropic Messages API.
type AnthropicClient struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

func NewAnthropicClient(apiKey, model string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, &domain.ConfigError{Field: "ANTHROPIC_API_KEY", Reason: "required for the anthropic provider"}
	}
	if model == "" {
		model = DefaultAnthropicModel
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &AnthropicClient{
		client:    &client,
		model:     anthropic.Model(model),
		maxTokens: 1024,
	}, nil
}

// Provider returns "anthropic".
func (c *AnthropicClient) Provider() string { return "anthropic" }

func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", domain.ErrTimeout
		}
		return "", &domain.GenerationError{Provider: "anthropic", Err: err}
	}

	var sb strings.Builder
	for _, content := range message.Content {
		if content.Type == "text" {
			sb.WriteString(content.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &domain.GenerationError{Provider: "anthropic", Err: errors.New("no text content in response")}
	}
	return sb.String(), nil
}
