package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"ragdocs/domain"
)

// DefaultOpenAIModel is used when the configuration names no chat model.
const DefaultOpenAIModel = openai.GPT3Dot5Turbo

// OpenAIClient implements domain.LLMClient on the OpenAI chat completions API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAIClient(apiKey, model string, temperature float32) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, &domain.ConfigError{Field: "OPENAI_API_KEY", Reason: "required for the openai provider"}
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIClient{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
	}, nil
}

// Provider returns "openai".
func (c *OpenAIClient) Provider() string { return "openai" }

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", domain.ErrTimeout
		}
		return "", &domain.GenerationError{Provider: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.GenerationError{Provider: "openai", Err: errors.New("empty completion response")}
	}
	return resp.Choices[0].Message.Content, nil
}
