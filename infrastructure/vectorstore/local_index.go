package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"ragdocs/domain"
)

const snapshotFile = "index.json"

// LocalIndex is a durable brute-force vector index backed by a single
// directory. Chunks are embedded through the configured EmbeddingClient and
// scored with cosine similarity over normalized vectors.
//
// Every mutation rewrites the on-disk snapshot (temp file + rename) before
// reporting success, so the index survives process restarts and never
// acknowledges writes it could lose. Mutations are serialized by an
// exclusive lock; searches share a read lock and therefore always observe
// a fully written state.
type LocalIndex struct {
	embedder domain.EmbeddingClient
	dir      string

	mu      sync.RWMutex
	records []record
}

type record struct {
	ID        string           `json:"id"`
	Embedding domain.Embedding `json:"embedding"`
	Chunk     domain.Chunk     `json:"chunk"`
}

type snapshot struct {
	Records []record `json:"records"`
}

// NewLocalIndex opens (or creates) the index persisted under dir.
func NewLocalIndex(dir string, embedder domain.EmbeddingClient) (*LocalIndex, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &domain.IndexError{Op: "open", Err: err}
	}
	idx := &LocalIndex{embedder: embedder, dir: dir}
	if err := idx.load(); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *LocalIndex) load() error {
	data, err := os.ReadFile(filepath.Join(idx.dir, snapshotFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &domain.IndexError{Op: "load", Err: err}
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return &domain.IndexError{Op: "load", Err: err}
	}
	idx.records = snap.Records
	return nil
}

// flush writes the snapshot atomically. Callers hold the write lock.
func (idx *LocalIndex) flush() error {
	data, err := json.Marshal(snapshot{Records: idx.records})
	if err != nil {
		return &domain.IndexError{Op: "flush", Err: err}
	}
	tmp := filepath.Join(idx.dir, snapshotFile+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &domain.IndexError{Op: "flush", Err: err}
	}
	if err := os.Rename(tmp, filepath.Join(idx.dir, snapshotFile)); err != nil {
		return &domain.IndexError{Op: "flush", Err: err}
	}
	return nil
}

// Add embeds and stores chunks. The whole batch is embedded before anything
// is written, so a partial embedding failure leaves the index untouched.
func (idx *LocalIndex) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	embeddings, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(embeddings) != len(chunks) {
		return &domain.IndexError{
			Op:  "add",
			Err: fmt.Errorf("embedded %d of %d chunks", len(embeddings), len(chunks)),
		}
	}

	added := make([]record, len(chunks))
	for i := range chunks {
		added[i] = record{
			ID:        uuid.New().String(),
			Embedding: normalize(embeddings[i]),
			Chunk:     chunks[i],
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	prev := idx.records
	idx.records = append(idx.records[:len(idx.records):len(idx.records)], added...)
	if err := idx.flush(); err != nil {
		idx.records = prev
		return err
	}
	return nil
}

// Search embeds the query and returns the k most similar chunks best-first.
func (idx *LocalIndex) Search(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error) {
	if k <= 0 {
		return nil, &domain.IndexError{Op: "search", Err: fmt.Errorf("k must be > 0, got %d", k)}
	}

	idx.mu.RLock()
	empty := len(idx.records) == 0
	idx.mu.RUnlock()
	if empty {
		return []domain.RetrievalResult{}, nil
	}

	queryVec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	queryVec = normalize(queryVec)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]domain.RetrievalResult, 0, len(idx.records))
	for _, r := range idx.records {
		results = append(results, domain.RetrievalResult{
			Chunk: r.Chunk,
			Score: dot(queryVec, r.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Delete removes the vectors with the given IDs; unknown IDs are ignored.
func (idx *LocalIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	prev := idx.records
	kept := make([]record, 0, len(idx.records))
	for _, r := range idx.records {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	idx.records = kept
	if err := idx.flush(); err != nil {
		idx.records = prev
		return err
	}
	return nil
}

// Clear removes all vectors; the index remains usable.
func (idx *LocalIndex) Clear(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	prev := idx.records
	idx.records = nil
	if err := idx.flush(); err != nil {
		idx.records = prev
		return err
	}
	return nil
}

// Stats reports the current size, dimension and backing directory.
func (idx *LocalIndex) Stats(ctx context.Context) (domain.IndexStats, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	dim := 0
	if len(idx.records) > 0 {
		dim = len(idx.records[0].Embedding)
	}
	return domain.IndexStats{
		TotalVectors:       len(idx.records),
		EmbeddingDimension: dim,
		Location:           idx.dir,
	}, nil
}

// IDs returns the stored vector IDs in insertion order.
func (idx *LocalIndex) IDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]string, len(idx.records))
	for i, r := range idx.records {
		ids[i] = r.ID
	}
	return ids
}

func normalize(v domain.Embedding) domain.Embedding {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	out := make(domain.Embedding, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func dot(a, b domain.Embedding) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
