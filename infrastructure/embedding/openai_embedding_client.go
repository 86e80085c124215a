package embedding

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"ragdocs/domain"
)

// OpenAIEmbeddingClient implements domain.EmbeddingClient against any
// OpenAI-compatible embeddings endpoint. With the default base URL it talks
// to the OpenAI API; pointed at an Ollama server's /v1 prefix it uses local
// models instead.
type OpenAIEmbeddingClient struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// Options configures the embeddings client.
type Options struct {
	// Model is the embedding model name, e.g. "text-embedding-3-small" or
	// "nomic-embed-text".
	Model string
	// BaseURL overrides the API endpoint. Empty means the OpenAI default.
	BaseURL string
	// APIKey overrides the OPENAI_API_KEY environment variable. Local
	// endpoints accept any non-empty key.
	APIKey string
}

// NewOpenAIEmbeddingClient creates an embeddings client. A key is required
// unless a custom base URL is configured; local servers ignore it.
func NewOpenAIEmbeddingClient(opts Options) (*OpenAIEmbeddingClient, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		if opts.BaseURL == "" {
			return nil, &domain.ConfigError{Field: "OPENAI_API_KEY", Reason: "not set"}
		}
		apiKey = "unused"
	}

	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &OpenAIEmbeddingClient{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(opts.Model),
	}, nil
}

// Embed generates an embedding for a single text.
func (c *OpenAIEmbeddingClient) Embed(ctx context.Context, text string) (domain.Embedding, error) {
	out, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch generates embeddings for the given texts in input order.
func (c *OpenAIEmbeddingClient) EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: c.model,
	})
	if err != nil {
		return nil, &domain.EmbeddingError{Err: err}
	}
	if len(resp.Data) != len(texts) {
		return nil, &domain.EmbeddingError{
			Err: fmt.Errorf("requested %d embeddings, got %d", len(texts), len(resp.Data)),
		}
	}

	embeddings := make([]domain.Embedding, len(resp.Data))
	for i, data := range resp.Data {
		embeddings[i] = domain.Embedding(data.Embedding)
	}
	return embeddings, nil
}
