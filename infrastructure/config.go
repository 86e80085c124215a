package infrastructure

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ragdocs/domain"
)

// Config holds all process configuration. Every key is optional and has a
// default; values come from an optional config.yaml overridden by the
// environment.
type Config struct {
	AIProvider    string  `yaml:"ai_provider"`
	AIModel       string  `yaml:"ai_model"`
	OllamaBaseURL string  `yaml:"ollama_base_url"`
	Temperature   float32 `yaml:"temperature"`
	LLMTimeoutSec int     `yaml:"llm_timeout_secs"`

	EmbeddingProvider string `yaml:"embedding_provider"`
	EmbeddingModel    string `yaml:"embedding_model"`
	EmbeddingBaseURL  string `yaml:"embedding_base_url"`

	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopKResults  int `yaml:"top_k_results"`

	VectorStore      string `yaml:"vector_store"`
	VectorStoreDir   string `yaml:"vector_store_dir"`
	QdrantAddr       string `yaml:"qdrant_addr"`
	QdrantCollection string `yaml:"qdrant_collection"`

	HTTPAddr string `yaml:"http_addr"`
}

// LoadConfig builds the configuration: defaults, then config.yaml if present,
// then environment variables (a .env.local file is honored, as is ".env").
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cfg := defaultConfig()

	if data, err := os.ReadFile("config.yaml"); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &domain.ConfigError{Field: "config.yaml", Reason: err.Error()}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, &domain.ConfigError{Field: "config.yaml", Reason: err.Error()}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		AIProvider:        "ollama",
		AIModel:           "",
		OllamaBaseURL:     "http://localhost:11434",
		Temperature:       0.7,
		LLMTimeoutSec:     120,
		EmbeddingProvider: "ollama",
		EmbeddingModel:    "nomic-embed-text",
		EmbeddingBaseURL:  "",
		ChunkSize:         domain.DefaultChunkSize,
		ChunkOverlap:      domain.DefaultChunkOverlap,
		TopKResults:       3,
		VectorStore:       "local",
		VectorStoreDir:    "./vector_db",
		QdrantAddr:        "localhost:6334",
		QdrantCollection:  "rag_documents",
		HTTPAddr:          ":8000",
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.AIProvider, "AI_PROVIDER")
	setString(&cfg.AIModel, "AI_MODEL")
	setString(&cfg.OllamaBaseURL, "OLLAMA_BASE_URL")
	setFloat(&cfg.Temperature, "TEMPERATURE")
	setInt(&cfg.LLMTimeoutSec, "LLM_TIMEOUT_SECS")
	setString(&cfg.EmbeddingProvider, "EMBEDDING_PROVIDER")
	setString(&cfg.EmbeddingModel, "EMBEDDING_MODEL")
	setString(&cfg.EmbeddingBaseURL, "EMBEDDING_BASE_URL")
	setInt(&cfg.ChunkSize, "CHUNK_SIZE")
	setInt(&cfg.ChunkOverlap, "CHUNK_OVERLAP")
	setInt(&cfg.TopKResults, "TOP_K_RESULTS")
	setString(&cfg.VectorStore, "VECTOR_STORE")
	setString(&cfg.VectorStoreDir, "VECTOR_STORE_DIR")
	setString(&cfg.QdrantAddr, "QDRANT_ADDR")
	setString(&cfg.QdrantCollection, "QDRANT_COLLECTION_NAME")
	setString(&cfg.HTTPAddr, "HTTP_ADDR")
}

func (c *Config) validate() error {
	if c.ChunkSize <= 0 {
		return &domain.ConfigError{Field: "CHUNK_SIZE", Reason: "must be > 0"}
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return &domain.ConfigError{Field: "CHUNK_OVERLAP", Reason: "must be >= 0 and < CHUNK_SIZE"}
	}
	if c.TopKResults <= 0 {
		return &domain.ConfigError{Field: "TOP_K_RESULTS", Reason: "must be > 0"}
	}
	if c.LLMTimeoutSec <= 0 {
		return &domain.ConfigError{Field: "LLM_TIMEOUT_SECS", Reason: "must be > 0"}
	}
	switch c.VectorStore {
	case "local", "qdrant":
	default:
		return &domain.ConfigError{Field: "VECTOR_STORE", Reason: "must be local or qdrant"}
	}
	return nil
}

// IsFreeProvider reports whether the selected generation backend runs
// locally at no cost.
func (c *Config) IsFreeProvider() bool {
	return c.AIProvider == "ollama"
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float32, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			*dst = float32(f)
		}
	}
}
