package domain

import "context"

// Embedding is a fixed-dimension numeric vector representation of text.
type Embedding []float32

// EmbeddingClient defines the interface for generating embeddings from text.
// The dimension is fixed per client instance. Failures are surfaced as
// *EmbeddingError; callers decide whether to retry.
type EmbeddingClient interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) (Embedding, error)
	// EmbedBatch generates embeddings for the given texts, one per input,
	// in input order.
	EmbedBatch(ctx context.Context, texts []string) ([]Embedding, error)
}
