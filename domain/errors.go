package domain

import (
	"errors"
	"fmt"
)

// ErrTimeout marks a generation call that exceeded its time budget. It is
// classified separately from GenerationError so callers can surface the fixed
// timeout message and tests can assert on it.
var ErrTimeout = errors.New("generation timed out")

// ConfigError reports invalid or missing configuration. It is fatal at
// startup and never produced mid-request.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// EmbeddingError wraps a failure of the embedding backend.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string { return fmt.Sprintf("embedding: %v", e.Err) }
func (e *EmbeddingError) Unwrap() error { return e.Err }

// IndexError wraps a storage failure of the vector index. The failed
// operation leaves the index unchanged.
type IndexError struct {
	Op  string
	Err error
}

func (e *IndexError) Error() string { return fmt.Sprintf("index %s: %v", e.Op, e.Err) }
func (e *IndexError) Unwrap() error { return e.Err }

// IngestionError reports a single document that could not be ingested. One
// bad document never aborts the rest of its batch.
type IngestionError struct {
	Name string
	Err  error
}

func (e *IngestionError) Error() string { return fmt.Sprintf("ingest %s: %v", e.Name, e.Err) }
func (e *IngestionError) Unwrap() error { return e.Err }

// GenerationError wraps a non-timeout failure of the generation backend.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation (%s): %v", e.Provider, e.Err)
}
func (e *GenerationError) Unwrap() error { return e.Err }
