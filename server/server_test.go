package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"ragdocs/application"
	"ragdocs/domain"
	"ragdocs/infrastructure/loader"
	"ragdocs/infrastructure/vectorstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testVocab = []string{"paris", "france", "capital", "language", "go", "machine", "learning"}

// bagEmbedder maps text to word-presence vectors so retrieval ranks by
// vocabulary overlap.
type bagEmbedder struct{}

func (bagEmbedder) Embed(ctx context.Context, text string) (domain.Embedding, error) {
	vec := make(domain.Embedding, len(testVocab))
	lower := strings.ToLower(text)
	for i, w := range testVocab {
		if strings.Contains(lower, w) {
			vec[i] = 1
		}
	}
	vec[0] += 0.001
	return vec, nil
}

func (e bagEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error) {
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

type fixedLLM struct {
	answer string
	err    error
}

func (l fixedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return l.answer, l.err
}

func (l fixedLLM) Provider() string { return "fixed" }

func newTestRouter(t *testing.T, llm domain.LLMClient) *gin.Engine {
	t.Helper()

	idx, err := vectorstore.NewLocalIndex(t.TempDir(), bagEmbedder{})
	if err != nil {
		t.Fatalf("NewLocalIndex: %v", err)
	}
	chunker, err := domain.NewChunker(domain.DefaultChunkSize, domain.DefaultChunkOverlap)
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}

	gen := application.NewGenerator(llm, 5*time.Second)
	queries := application.NewQueryService(idx, nil, gen, 3, application.SystemInfo{
		AIProvider:        "ollama",
		AIModel:           "llama2",
		IsFree:            true,
		EmbeddingProvider: "test",
		ChunkSize:         domain.DefaultChunkSize,
		ChunkOverlap:      domain.DefaultChunkOverlap,
		TopKResults:       3,
	})
	ingestion := application.NewIngestionService(loader.New(), chunker, idx)

	return New(queries, ingestion).Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(data)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
		}
	}
	return w, out
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, fixedLLM{answer: "ok"})

	w, body := doJSON(t, router, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %v", body["status"])
	}
	if body["ai_provider"] != "ollama" {
		t.Errorf("ai_provider = %v", body["ai_provider"])
	}
	if body["is_free"] != true {
		t.Errorf("is_free = %v", body["is_free"])
	}
	if body["embedding_provider"] != "test" {
		t.Errorf("embedding_provider = %v", body["embedding_provider"])
	}
}

func TestRootEndpoint(t *testing.T) {
	router := newTestRouter(t, fixedLLM{answer: "ok"})

	w, body := doJSON(t, router, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["status"] != "running" {
		t.Errorf("status = %v", body["status"])
	}
	if body["rag_system_ready"] != true {
		t.Errorf("rag_system_ready = %v", body["rag_system_ready"])
	}
}

func TestChatWithoutDocuments(t *testing.T) {
	router := newTestRouter(t, fixedLLM{answer: "unused"})

	w, body := doJSON(t, router, http.MethodPost, "/api/chat", map[string]any{"question": "what is go?"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %v", w.Code, body)
	}
	if body["answer"] != application.NoContextAnswer {
		t.Errorf("answer = %v", body["answer"])
	}
	if body["num_sources"] != float64(0) {
		t.Errorf("num_sources = %v", body["num_sources"])
	}
}

func TestChatRequiresQuestion(t *testing.T) {
	router := newTestRouter(t, fixedLLM{answer: "unused"})

	w, _ := doJSON(t, router, http.MethodPost, "/api/chat", map[string]any{"k": 2})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestUploadThenChat(t *testing.T) {
	router := newTestRouter(t, fixedLLM{answer: "Paris is the capital of France."})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", "geo.txt")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte("Paris is the capital of France."))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", w.Code, w.Body.String())
	}

	var reports []domain.IngestReport
	if err := json.Unmarshal(w.Body.Bytes(), &reports); err != nil {
		t.Fatalf("unmarshal reports: %v", err)
	}
	if len(reports) != 1 || reports[0].Status != "processed" {
		t.Fatalf("reports = %+v", reports)
	}

	cw, body := doJSON(t, router, http.MethodPost, "/api/chat", map[string]any{"question": "capital of France?"})
	if cw.Code != http.StatusOK {
		t.Fatalf("chat status = %d, body %v", cw.Code, body)
	}
	if !strings.Contains(body["answer"].(string), "Paris") {
		t.Errorf("answer = %v", body["answer"])
	}
	if body["num_sources"] != float64(1) {
		t.Errorf("num_sources = %v", body["num_sources"])
	}
}

func TestUploadWithoutFiles(t *testing.T) {
	router := newTestRouter(t, fixedLLM{answer: "unused"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestSampleDocumentsAndListing(t *testing.T) {
	router := newTestRouter(t, fixedLLM{answer: "ok"})

	w, body := doJSON(t, router, http.MethodPost, "/api/sample-documents", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %v", w.Code, body)
	}
	if body["count"] != float64(8) {
		t.Errorf("count = %v", body["count"])
	}

	_, listing := doJSON(t, router, http.MethodGet, "/api/documents", nil)
	if listing["total_documents"] != float64(8) {
		t.Errorf("total_documents = %v", listing["total_documents"])
	}
	if listing["status"] != "success" {
		t.Errorf("status = %v", listing["status"])
	}

	dw, cleared := doJSON(t, router, http.MethodDelete, "/api/documents", nil)
	if dw.Code != http.StatusOK {
		t.Fatalf("delete status = %d", dw.Code)
	}
	if cleared["message"] != "All documents cleared successfully" {
		t.Errorf("message = %v", cleared["message"])
	}

	_, after := doJSON(t, router, http.MethodGet, "/api/documents", nil)
	if after["total_documents"] != float64(0) {
		t.Errorf("total_documents after clear = %v", after["total_documents"])
	}
}

func TestChatGenerationFailureReturns500(t *testing.T) {
	router := newTestRouter(t, fixedLLM{err: errors.New("backend exploded")})

	_, body := doJSON(t, router, http.MethodPost, "/api/sample-documents", nil)
	if body["count"] != float64(8) {
		t.Fatalf("sample load failed: %v", body)
	}

	w, resp := doJSON(t, router, http.MethodPost, "/api/chat", map[string]any{"question": "what is machine learning?"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, body %v", w.Code, resp)
	}
	if detail, _ := resp["detail"].(string); strings.Contains(detail, "exploded") {
		t.Errorf("raw backend error leaked: %q", detail)
	}
}

func TestSystemInfoEndpoint(t *testing.T) {
	router := newTestRouter(t, fixedLLM{answer: "ok"})

	w, body := doJSON(t, router, http.MethodGet, "/api/system-info", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["ai_model"] != "llama2" {
		t.Errorf("ai_model = %v", body["ai_model"])
	}
	if body["chunk_size"] != float64(domain.DefaultChunkSize) {
		t.Errorf("chunk_size = %v", body["chunk_size"])
	}
	if body["total_documents"] != float64(0) {
		t.Errorf("total_documents = %v", body["total_documents"])
	}
}
