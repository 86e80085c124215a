package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"ragdocs/domain"
)

// wordEmbedder maps texts onto a small fixed vocabulary axis so similarity
// reflects word overlap. Deterministic and offline.
type wordEmbedder struct {
	failAfter int // fail the batch once this many texts have been embedded; 0 disables
	seen      int
}

var vocab = []string{"paris", "france", "capital", "go", "gopher", "language"}

func (e *wordEmbedder) Embed(ctx context.Context, text string) (domain.Embedding, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (e *wordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	var out []domain.Embedding
	for _, t := range texts {
		if e.failAfter > 0 && e.seen >= e.failAfter {
			return nil, &domain.EmbeddingError{Err: errors.New("backend unavailable")}
		}
		e.seen++
		vec := make(domain.Embedding, len(vocab))
		lower := strings.ToLower(t)
		for i, w := range vocab {
			if strings.Contains(lower, w) {
				vec[i] = 1
			}
		}
		vec[0] += 0.001 // avoid all-zero vectors for out-of-vocabulary text
		out = append(out, vec)
	}
	return out, nil
}

// pureEmbedder is the same vocabulary mapping without mutable state, safe to
// share across goroutines.
type pureEmbedder struct{}

func (pureEmbedder) Embed(ctx context.Context, text string) (domain.Embedding, error) {
	vec := make(domain.Embedding, len(vocab))
	lower := strings.ToLower(text)
	for i, w := range vocab {
		if strings.Contains(lower, w) {
			vec[i] = 1
		}
	}
	vec[0] += 0.001
	return vec, nil
}

func (e pureEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	out := make([]domain.Embedding, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func newTestIndex(t *testing.T) *LocalIndex {
	t.Helper()
	idx, err := NewLocalIndex(t.TempDir(), &wordEmbedder{})
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	return idx
}

func chunk(text, source string) domain.Chunk {
	return domain.Chunk{Text: text, Metadata: map[string]string{"source": source}}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := newTestIndex(t)
	results, err := idx.Search(context.Background(), "anything at all", 5)
	if err != nil {
		t.Fatalf("search on empty index: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestSearchRejectsBadK(t *testing.T) {
	idx := newTestIndex(t)
	if _, err := idx.Search(context.Background(), "q", 0); err == nil {
		t.Fatal("expected error for k=0")
	}
	if _, err := idx.Search(context.Background(), "q", -1); err == nil {
		t.Fatal("expected error for negative k")
	}
}

func TestAddThenSearchRoundTrip(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.Add(ctx, []domain.Chunk{
		chunk("Paris is the capital of France.", "geo.txt"),
		chunk("Go is a programming language.", "lang.txt"),
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	results, err := idx.Search(ctx, "What is the capital of France?", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Chunk.Source() != "geo.txt" {
		t.Errorf("top result source = %q, want geo.txt", results[0].Chunk.Source())
	}
	if results[0].Score <= 0 {
		t.Errorf("expected positive similarity, got %v", results[0].Score)
	}
}

func TestSearchOrderedBestFirst(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.Add(ctx, []domain.Chunk{
		chunk("The gopher mascot.", "a.txt"),
		chunk("Paris, France: the capital.", "b.txt"),
		chunk("Another Go language note.", "c.txt"),
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	results, err := idx.Search(ctx, "capital of France, Paris", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not ordered best-first at %d: %v > %v", i, results[i].Score, results[i-1].Score)
		}
	}
	if results[0].Chunk.Source() != "b.txt" {
		t.Errorf("best result source = %q, want b.txt", results[0].Chunk.Source())
	}
}

func TestAddIsAtomicOnEmbeddingFailure(t *testing.T) {
	dir := t.TempDir()
	idx, err := NewLocalIndex(dir, &wordEmbedder{failAfter: 2})
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	ctx := context.Background()

	before, _ := idx.Stats(ctx)

	err = idx.Add(ctx, []domain.Chunk{
		chunk("one", "a.txt"),
		chunk("two", "a.txt"),
		chunk("three", "a.txt"),
	})
	if err == nil {
		t.Fatal("expected embedding failure")
	}
	var embErr *domain.EmbeddingError
	if !errors.As(err, &embErr) {
		t.Fatalf("expected EmbeddingError, got %T: %v", err, err)
	}

	after, _ := idx.Stats(ctx)
	if after.TotalVectors != before.TotalVectors {
		t.Errorf("index mutated by failed add: %d -> %d vectors", before.TotalVectors, after.TotalVectors)
	}
}

func TestClearKeepsIndexUsable(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.Add(ctx, []domain.Chunk{chunk("Paris", "geo.txt")}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := idx.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	stats, _ := idx.Stats(ctx)
	if stats.TotalVectors != 0 {
		t.Fatalf("expected empty index after clear, got %d vectors", stats.TotalVectors)
	}

	// Index must remain usable after a clear.
	if err := idx.Add(ctx, []domain.Chunk{chunk("France", "geo.txt")}); err != nil {
		t.Fatalf("add after clear: %v", err)
	}
	results, err := idx.Search(ctx, "France", 1)
	if err != nil || len(results) != 1 {
		t.Fatalf("search after clear: %v (%d results)", err, len(results))
	}
}

func TestDeleteByID(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.Add(ctx, []domain.Chunk{
		chunk("Paris", "a.txt"),
		chunk("France", "b.txt"),
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	ids := idx.IDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	if err := idx.Delete(ctx, ids[:1]); err != nil {
		t.Fatalf("delete: %v", err)
	}

	stats, _ := idx.Stats(ctx)
	if stats.TotalVectors != 1 {
		t.Errorf("expected 1 vector after delete, got %d", stats.TotalVectors)
	}

	// Unknown IDs are ignored.
	if err := idx.Delete(ctx, []string{"no-such-id"}); err != nil {
		t.Errorf("delete of unknown id: %v", err)
	}
}

func TestIndexSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := NewLocalIndex(dir, &wordEmbedder{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.Add(ctx, []domain.Chunk{chunk("Paris is the capital of France.", "geo.txt")}); err != nil {
		t.Fatalf("add: %v", err)
	}

	reopened, err := NewLocalIndex(dir, &wordEmbedder{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	stats, _ := reopened.Stats(ctx)
	if stats.TotalVectors != 1 {
		t.Fatalf("expected persisted vector after reopen, got %d", stats.TotalVectors)
	}
	results, err := reopened.Search(ctx, "capital of France", 1)
	if err != nil || len(results) != 1 {
		t.Fatalf("search after reopen: %v (%d results)", err, len(results))
	}
	if results[0].Chunk.Source() != "geo.txt" {
		t.Errorf("reopened result source = %q", results[0].Chunk.Source())
	}
}

func TestConcurrentMutationsAndSearches(t *testing.T) {
	dir := t.TempDir()
	idx, err := NewLocalIndex(dir, pureEmbedder{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	const writers = 4
	const addsPerWriter = 5

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < addsPerWriter; i++ {
				err := idx.Add(ctx, []domain.Chunk{
					chunk(fmt.Sprintf("Paris note %d from writer %d", i, w), fmt.Sprintf("doc%d.txt", w)),
				})
				if err != nil {
					t.Errorf("writer %d add %d: %v", w, i, err)
				}
			}
		}(w)
	}
	for r := 0; r < 3; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if _, err := idx.Search(ctx, "Paris France", 3); err != nil {
					t.Errorf("search: %v", err)
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := idx.Clear(ctx); err != nil {
			t.Errorf("clear: %v", err)
		}
	}()
	wg.Wait()

	// Whatever interleaving happened, the snapshot on disk must match the
	// in-memory state exactly.
	stats, err := idx.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	ids := idx.IDs()
	if len(ids) != stats.TotalVectors {
		t.Fatalf("ids/stats disagree: %d vs %d", len(ids), stats.TotalVectors)
	}

	reopened, err := NewLocalIndex(dir, pureEmbedder{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	reStats, err := reopened.Stats(ctx)
	if err != nil {
		t.Fatalf("reopened stats: %v", err)
	}
	if reStats.TotalVectors != stats.TotalVectors {
		t.Fatalf("reopened index has %d vectors, in-memory had %d", reStats.TotalVectors, stats.TotalVectors)
	}
	reIDs := reopened.IDs()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, id := range reIDs {
		if !want[id] {
			t.Errorf("reopened index has unknown id %s", id)
		}
	}
	if len(reIDs) != len(ids) {
		t.Errorf("reopened ids = %d, want %d", len(reIDs), len(ids))
	}
}

func TestStatsReportsDimensionAndLocation(t *testing.T) {
	dir := t.TempDir()
	idx, err := NewLocalIndex(dir, &wordEmbedder{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	if err := idx.Add(ctx, []domain.Chunk{chunk("Paris", "a.txt")}); err != nil {
		t.Fatalf("add: %v", err)
	}
	stats, err := idx.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.EmbeddingDimension != len(vocab) {
		t.Errorf("dimension = %d, want %d", stats.EmbeddingDimension, len(vocab))
	}
	if stats.Location != dir {
		t.Errorf("location = %q, want %q", stats.Location, dir)
	}
}
