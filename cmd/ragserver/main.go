package main

import (
	"log"
	"time"

	"ragdocs/application"
	"ragdocs/domain"
	"ragdocs/infrastructure"
	"ragdocs/infrastructure/llm"
	"ragdocs/infrastructure/loader"
	"ragdocs/server"
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
	log.Printf("generation backend: %s", client.Provider())

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

	srv := server.New(queries, ingestion)
	log.Printf("listening on %s", cfg.HTTPAddr)
	if err := srv.Router().Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
