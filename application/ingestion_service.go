package application

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"ragdocs/domain"
)

// TextExtractor turns raw file bytes plus a declared type into plain text.
// Implementations live at the ingestion boundary; the pipeline only needs
// text and a source name.
type TextExtractor interface {
	Extract(name string, declaredType string, data []byte) (string, error)
}

// UploadedFile is one document handed to the ingestion service.
type UploadedFile struct {
	Name string
	Type string
	Data []byte
}

// IngestionService loads documents, chunks them and writes the chunks to the
// vector index. Failures are isolated per document: one unreadable file is
// reported in its own IngestReport and never aborts the rest of the batch.
// Each file's index write is atomic.
type IngestionService struct {
	extractor TextExtractor
	chunker   *domain.Chunker
	index     domain.VectorIndex
}

// NewIngestionService creates an ingestion service.
func NewIngestionService(extractor TextExtractor, chunker *domain.Chunker, index domain.VectorIndex) *IngestionService {
	return &IngestionService{
		extractor: extractor,
		chunker:   chunker,
		index:     index,
	}
}

// IngestBatch processes each uploaded file independently and reports per-file
// outcomes in input order.
func (s *IngestionService) IngestBatch(ctx context.Context, files []UploadedFile) []domain.IngestReport {
	reports := make([]domain.IngestReport, 0, len(files))
	for _, f := range files {
		report := s.ingestOne(ctx, f)
		if report.Status != "processed" {
			log.Printf("Ingestion of %s failed: %s", f.Name, report.Error)
		} else {
			log.Printf("Ingested %s: %d chunks", f.Name, report.Chunks)
		}
		reports = append(reports, report)
	}
	return reports
}

func (s *IngestionService) ingestOne(ctx context.Context, f UploadedFile) domain.IngestReport {
	report := domain.IngestReport{
		ID:   uuid.New().String(),
		Name: f.Name,
		Size: len(f.Data),
		Type: f.Type,
	}

	text, err := s.extractor.Extract(f.Name, f.Type, f.Data)
	if err != nil {
		ingErr := &domain.IngestionError{Name: f.Name, Err: err}
		report.Status = "failed"
		report.Error = ingErr.Error()
		return report
	}

	chunks := s.chunker.Split(text, f.Name)
	if len(chunks) == 0 {
		ingErr := &domain.IngestionError{Name: f.Name, Err: fmt.Errorf("no text content extracted")}
		report.Status = "failed"
		report.Error = ingErr.Error()
		return report
	}

	if err := s.index.Add(ctx, chunks); err != nil {
		report.Status = "failed"
		report.Error = (&domain.IngestionError{Name: f.Name, Err: err}).Error()
		return report
	}

	report.Status = "processed"
	report.Chunks = len(chunks)
	return report
}

// sampleTexts is the built-in demo corpus.
var sampleTexts = []string{
	"Artificial Intelligence (AI) is a branch of computer science that aims to create intelligent machines that work and react like humans.",
	"Machine Learning is a subset of AI that enables computers to learn and improve from experience without being explicitly programmed.",
	"Deep Learning uses neural networks with multiple layers to model and understand complex patterns in data.",
	"Natural Language Processing (NLP) is a field of AI that focuses on the interaction between computers and human language.",
	"Retrieval-Augmented Generation (RAG) combines information retrieval with text generation to provide more accurate and contextual responses.",
	"Vector databases store high-dimensional vectors that represent text embeddings, enabling efficient similarity search.",
	"Embeddings are numerical representations of text that capture semantic meaning and can be used for similarity comparisons.",
	"Chunking is the process of breaking down large documents into smaller, manageable pieces for processing and storage.",
}

// LoadSampleDocuments indexes the built-in demo corpus and returns the
// number of documents added. The whole corpus is one atomic add.
func (s *IngestionService) LoadSampleDocuments(ctx context.Context) (int, error) {
	chunks := make([]domain.Chunk, len(sampleTexts))
	for i, text := range sampleTexts {
		chunks[i] = domain.Chunk{
			Text: text,
			Metadata: map[string]string{
				"source": "sample_doc_" + strconv.Itoa(i+1),
				"type":   "sample",
			},
		}
	}
	if err := s.index.Add(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// Clear removes every document from the index.
func (s *IngestionService) Clear(ctx context.Context) error {
	return s.index.Clear(ctx)
}

// SupportedExtensions lists the file types the default loader accepts,
// for front-ends that want to filter uploads.
func SupportedExtensions() []string {
	return []string{".txt", ".md", ".pdf", ".py", ".js", ".go", ".html", ".css", ".csv", ".json", ".yaml", ".yml"}
}

// DescribeTypes renders the supported extensions for help text.
func DescribeTypes() string {
	return strings.Join(SupportedExtensions(), ", ")
}
