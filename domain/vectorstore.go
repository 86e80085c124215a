package domain

import "context"

// VectorIndex stores embedded chunks and supports nearest-neighbor search.
// All implementations score with cosine similarity (higher is better) and
// persist every mutation before returning success.
type VectorIndex interface {
	// Add embeds and stores the given chunks. The call is atomic: either
	// every chunk is added or, on any embedding or storage failure, none are.
	Add(ctx context.Context, chunks []Chunk) error
	// Search embeds the query and returns the k most similar chunks,
	// best first. An empty index yields an empty slice, not an error.
	// k <= 0 is an error.
	Search(ctx context.Context, query string, k int) ([]RetrievalResult, error)
	// Delete removes the vectors with the given IDs. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) error
	// Clear removes all vectors. The index stays usable afterward.
	Clear(ctx context.Context) error
	// Stats reports the current size, dimension and backing location.
	Stats(ctx context.Context) (IndexStats, error)
}
