package application

import (
	"context"
	"errors"
	"fmt"
	"log"

	"ragdocs/domain"
)

// NoContextAnswer is returned when the index holds nothing relevant to the
// question. It is a normal response, not an error.
const NoContextAnswer = "I couldn't find any relevant documents to answer your question. " +
	"Please upload some documents first."

// ErrorClassTimeout is the machine-checkable value of QueryResponse.Error
// when generation exceeded its time budget.
const ErrorClassTimeout = "timeout"

// SystemInfo describes the running configuration, surfaced by the health and
// system-info endpoints.
type SystemInfo struct {
	AIProvider        string `json:"ai_provider"`
	AIModel           string `json:"ai_model"`
	IsFree            bool   `json:"is_free"`
	EmbeddingProvider string `json:"embedding_provider"`
	EmbeddingModel    string `json:"embedding_model"`
	ChunkSize         int    `json:"chunk_size"`
	ChunkOverlap      int    `json:"chunk_overlap"`
	TopKResults       int    `json:"top_k_results"`
}

// QueryService coordinates retrieval, context assembly and answer generation
// for a single question. Queries are stateless and safe to run concurrently;
// the vector index is the only shared resource and guards itself.
type QueryService struct {
	index     domain.VectorIndex
	assembler *domain.ContextAssembler
	generator *Generator
	topK      int
	info      SystemInfo
}

// NewQueryService wires the query pipeline. defaultK is the retrieval depth
// used when a query does not specify one.
func NewQueryService(index domain.VectorIndex, assembler *domain.ContextAssembler, generator *Generator, defaultK int, info SystemInfo) *QueryService {
	if assembler == nil {
		assembler = domain.NewContextAssembler()
	}
	return &QueryService{
		index:     index,
		assembler: assembler,
		generator: generator,
		topK:      defaultK,
		info:      info,
	}
}

// Query runs the retrieve-assemble-generate pipeline. The returned response
// always carries a renderable Answer; failures are reported through the
// Error field, never by panicking or leaking raw backend errors.
func (s *QueryService) Query(ctx context.Context, question string, k int) domain.QueryResponse {
	if k <= 0 {
		k = s.topK
	}

	results, err := s.index.Search(ctx, question, k)
	if err != nil {
		log.Printf("Query retrieval failed: %v", err)
		return domain.QueryResponse{
			Answer:  "I was unable to search the document index. Please try again.",
			Sources: []domain.SourceGroup{},
			Error:   fmt.Sprintf("retrieval failed: %v", briefReason(err)),
		}
	}

	log.Printf("Found %d relevant chunks for query %q", len(results), clip(question, 50))

	if len(results) == 0 {
		return domain.QueryResponse{
			Answer:  NoContextAnswer,
			Sources: []domain.SourceGroup{},
		}
	}

	contextStr, sources := s.assembler.Assemble(results)

	answer, err := s.generator.Generate(ctx, question, contextStr)
	if err != nil {
		if errors.Is(err, domain.ErrTimeout) {
			return domain.QueryResponse{
				Answer:  TimeoutAnswer,
				Sources: []domain.SourceGroup{},
				Error:   ErrorClassTimeout,
			}
		}
		log.Printf("Answer generation failed: %v", err)
		return domain.QueryResponse{
			Answer:     fmt.Sprintf("I encountered an error while generating an answer: %s", briefReason(err)),
			Sources:    sources,
			NumSources: len(sources),
			Error:      briefReason(err),
		}
	}

	return domain.QueryResponse{
		Answer:     answer,
		Sources:    sources,
		NumSources: len(sources),
	}
}

// Summarize produces a bounded summary of text via the generation backend.
func (s *QueryService) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	return s.generator.Summarize(ctx, text, maxWords)
}

// GenerateQuestions produces up to n questions about text.
func (s *QueryService) GenerateQuestions(ctx context.Context, text string, n int) ([]string, error) {
	return s.generator.GenerateQuestions(ctx, text, n)
}

// Stats exposes the underlying index statistics.
func (s *QueryService) Stats(ctx context.Context) (domain.IndexStats, error) {
	return s.index.Stats(ctx)
}

// SystemInfo returns the running configuration summary.
func (s *QueryService) SystemInfo() SystemInfo { return s.info }

// briefReason reduces an error chain to its outermost message, keeping raw
// backend detail out of user-facing fields.
func briefReason(err error) string {
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) {
		return fmt.Sprintf("generation backend (%s) failed", genErr.Provider)
	}
	var embErr *domain.EmbeddingError
	if errors.As(err, &embErr) {
		return "embedding backend failed"
	}
	var idxErr *domain.IndexError
	if errors.As(err, &idxErr) {
		return fmt.Sprintf("index %s failed", idxErr.Op)
	}
	return err.Error()
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
