package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ragdocs/application"
	"ragdocs/domain"
	"ragdocs/infrastructure"
	"ragdocs/infrastructure/llm"
	"ragdocs/infrastructure/loader"
	"ragdocs/tui"
)

func main() {
	cfg, err := infrastructure.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	embedder, err := infrastructure.NewEmbeddingClient(cfg)
	if err != nil {
		log.Fatalf("embedding client: %v", err)
	}

	index, err := infrastructure.NewVectorIndex(cfg, embedder)
	if err != nil {
		log.Fatalf("vector index: %v", err)
	}

	client, err := llm.BuildWithFallback(cfg.LLMOptions())
	if err != nil {
		log.Fatalf("llm backend: %v", err)
	}

	chunker, err := domain.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatalf("chunker: %v", err)
	}

	gen := application.NewGenerator(client, time.Duration(cfg.LLMTimeoutSec)*time.Second)
	queries := application.NewQueryService(index, nil, gen, cfg.TopKResults, application.SystemInfo{
		AIProvider:        client.Provider(),
		AIModel:           cfg.AIModel,
		IsFree:            client.Provider() == "ollama",
		EmbeddingProvider: cfg.EmbeddingProvider,
		EmbeddingModel:    cfg.EmbeddingModel,
		ChunkSize:         cfg.ChunkSize,
		ChunkOverlap:      cfg.ChunkOverlap,
		TopKResults:       cfg.TopKResults,
	})
	ingestion := application.NewIngestionService(loader.New(), chunker, index)

	// Any paths on the command line get ingested before the chat starts.
	if len(os.Args) > 1 {
		if err := ingestPaths(ingestion, os.Args[1:]); err != nil {
			log.Fatalf("ingest: %v", err)
		}
	}

	if _, err := tea.NewProgram(tui.New(queries), tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}

func ingestPaths(ingestion *application.IngestionService, paths []string) error {
	files := make([]application.UploadedFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files = append(files, application.UploadedFile{Name: filepath.Base(p), Data: data})
	}
	for _, report := range ingestion.IngestBatch(context.Background(), files) {
		if report.Status == "processed" {
			log.Printf("indexed %s (%d chunks)", report.Name, report.Chunks)
		} else {
			log.Printf("skipped %s: %s", report.Name, report.Error)
		}
	}
	return nil
}
