package infrastructure

import (
	"os"

	"ragdocs/domain"
	"ragdocs/infrastructure/embedding"
	"ragdocs/infrastructure/llm"
	"ragdocs/infrastructure/vectorstore"
)

// NewEmbeddingClient selects the embeddings backend for the configuration.
// Ollama serves an OpenAI-compatible embeddings API under /v1, so both
// providers share one client.
func NewEmbeddingClient(cfg *Config) (domain.EmbeddingClient, error) {
	opts := embedding.Options{Model: cfg.EmbeddingModel, BaseURL: cfg.EmbeddingBaseURL}
	if cfg.EmbeddingProvider == "ollama" && opts.BaseURL == "" {
		opts.BaseURL = cfg.OllamaBaseURL + "/v1"
	}
	return embedding.NewOpenAIEmbeddingClient(opts)
}

// NewVectorIndex opens the configured vector index.
func NewVectorIndex(cfg *Config, embedder domain.EmbeddingClient) (domain.VectorIndex, error) {
	if cfg.VectorStore == "qdrant" {
		return vectorstore.NewQdrantIndex(cfg.QdrantAddr, cfg.QdrantCollection, embedder)
	}
	return vectorstore.NewLocalIndex(cfg.VectorStoreDir, embedder)
}

// LLMOptions translates the configuration into backend construction options,
// resolving the provider's API key from the environment.
func (c *Config) LLMOptions() llm.Options {
	return llm.Options{
		Provider:    c.AIProvider,
		Model:       c.AIModel,
		BaseURL:     c.OllamaBaseURL,
		APIKey:      apiKeyFor(c.AIProvider),
		Temperature: c.Temperature,
	}
}

func apiKeyFor(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}
