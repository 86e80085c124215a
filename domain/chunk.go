package domain

// Chunk is the unit of embedding and retrieval: a bounded span of document
// text with attached source metadata. Chunks are immutable once created.
type Chunk struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Source returns the originating document name recorded by the loader,
// or "" when the chunk carries no source metadata.
func (c Chunk) Source() string {
	return c.Metadata["source"]
}

// RetrievalResult is a chunk returned by a vector index search together with
// its similarity score. Scores are cosine similarity: higher is better. Every
// index implementation must follow this convention.
type RetrievalResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}

// SourceGroup aggregates all retrieved chunks that share the same normalized
// document name. It is derived at assembly time and never stored.
type SourceGroup struct {
	Title          string            `json:"title"`
	Content        string            `json:"content"`
	Score          float64           `json:"score"`
	ChunksCombined int               `json:"chunks_combined"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// QueryResponse is the terminal output of one query. Error, when set, carries
// a short machine-checkable failure class ("timeout" or a brief reason); the
// Answer field always holds something renderable.
type QueryResponse struct {
	Answer     string        `json:"answer"`
	Sources    []SourceGroup `json:"sources"`
	NumSources int           `json:"num_sources"`
	Error      string        `json:"error,omitempty"`
}

// IndexStats describes the current state of a vector index.
type IndexStats struct {
	TotalVectors       int    `json:"total_vectors"`
	EmbeddingDimension int    `json:"embedding_dimension"`
	Location           string `json:"location"`
}

// IngestReport describes the outcome of ingesting a single document.
type IngestReport struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Size   int    `json:"size"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Chunks int    `json:"chunks"`
	Error  string `json:"error,omitempty"`
}
