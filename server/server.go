package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ragdocs/application"
)

// Server exposes the query and ingestion services over HTTP.
type Server struct {
	queries   *application.QueryService
	ingestion *application.IngestionService
}

func New(queries *application.QueryService, ingestion *application.IngestionService) *Server {
	return &Server{queries: queries, ingestion: ingestion}
}

// Router builds the gin engine with all routes registered. Handlers pass the
// request context down so a client disconnect cancels in-flight backend calls.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()

	router.GET("/", s.root)
	router.GET("/api/health", s.health)
	router.POST("/api/upload", s.upload)
	router.POST("/api/chat", s.chat)
	router.GET("/api/documents", s.listDocuments)
	router.DELETE("/api/documents", s.clearDocuments)
	router.POST("/api/sample-documents", s.loadSamples)
	router.GET("/api/system-info", s.systemInfo)

	return router
}

func (s *Server) root(c *gin.Context) {
	info := s.queries.SystemInfo()
	c.JSON(http.StatusOK, gin.H{
		"message":          "RAG System API",
		"status":           "running",
		"rag_system_ready": true,
		"ai_provider":      info.AIProvider,
		"is_free":          info.IsFree,
	})
}

func (s *Server) health(c *gin.Context) {
	info := s.queries.SystemInfo()
	c.JSON(http.StatusOK, gin.H{
		"status":             "healthy",
		"rag_system":         true,
		"document_loader":    true,
		"vector_store":       true,
		"ai_provider":        info.AIProvider,
		"ai_model":           info.AIModel,
		"is_free":            info.IsFree,
		"embedding_provider": info.EmbeddingProvider,
	})
}

func (s *Server) upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid multipart form"})
		return
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "No files provided"})
		return
	}

	files := make([]application.UploadedFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Error processing %s: %s", fh.Filename, err)})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Error processing %s: %s", fh.Filename, err)})
			return
		}
		files = append(files, application.UploadedFile{
			Name: fh.Filename,
			Type: fh.Header.Get("Content-Type"),
			Data: data,
		})
	}

	reports := s.ingestion.IngestBatch(c.Request.Context(), files)
	c.JSON(http.StatusOK, reports)
}

type chatRequest struct {
	Question string `json:"question" binding:"required"`
	K        int    `json:"k"`
}

func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "question is required"})
		return
	}

	resp := s.queries.Query(c.Request.Context(), req.Question, req.K)
	if resp.Error != "" {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": resp.Error})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listDocuments(c *gin.Context) {
	stats, err := s.queries.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Error getting document stats: %s", err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_documents": stats.TotalVectors,
		"status":          "success",
	})
}

func (s *Server) clearDocuments(c *gin.Context) {
	if err := s.ingestion.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Error clearing documents: %s", err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All documents cleared successfully"})
}

func (s *Server) loadSamples(c *gin.Context) {
	count, err := s.ingestion.LoadSampleDocuments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Error loading sample documents: %s", err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Loaded %d sample documents successfully", count),
		"count":   count,
	})
}

func (s *Server) systemInfo(c *gin.Context) {
	info := s.queries.SystemInfo()
	stats, err := s.queries.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Error getting system info: %s", err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ai_provider":         info.AIProvider,
		"ai_model":            info.AIModel,
		"is_free":             info.IsFree,
		"embedding_provider":  info.EmbeddingProvider,
		"embedding_model":     info.EmbeddingModel,
		"chunk_size":          info.ChunkSize,
		"chunk_overlap":       info.ChunkOverlap,
		"top_k_results":       info.TopKResults,
		"total_documents":     stats.TotalVectors,
		"embedding_dimension": stats.EmbeddingDimension,
		"index_location":      stats.Location,
	})
}
