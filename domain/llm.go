package domain

import "context"

// LLMClient defines the capability required from a language-model backend:
// turn a prompt into a completion. Concrete backends are selected once at
// startup via configuration.
//
// Implementations must honor ctx cancellation and return ErrTimeout (wrapped
// or bare) when the bounded wait is exceeded, and *GenerationError for any
// other backend failure.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	// Provider returns the backend name, e.g. "ollama" or "openai".
	Provider() string
}
