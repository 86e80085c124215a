package llm

import (
	"fmt"
	"log"
	"sort"

	"ragdocs/domain"
)

// Options carries everything needed to construct a chat backend.
type Options struct {
	Provider    string
	Model       string
	BaseURL     string // ollama only
	APIKey      string
	Temperature float32
}

// Factory constructs a backend from options.
type Factory func(Options) (domain.LLMClient, error)

var backends = map[string]Factory{
	"ollama": func(opts Options) (domain.LLMClient, error) {
		return NewOllamaClient(opts.BaseURL, opts.Model, opts.Temperature)
	},
	"openai": func(opts Options) (domain.LLMClient, error) {
		return NewOpenAIClient(opts.APIKey, opts.Model, opts.Temperature)
	},
	"anthropic": func(opts Options) (domain.LLMClient, error) {
		return NewAnthropicClient(opts.APIKey, opts.Model)
	},
}

// Register adds (or replaces) a backend under the given provider name.
func Register(name string, factory Factory) {
	backends[name] = factory
}

// Providers lists the registered backend names, sorted.
func Providers() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build constructs the backend registered under opts.Provider. An empty
// provider means ollama.
func Build(opts Options) (domain.LLMClient, error) {
	name := opts.Provider
	if name == "" {
		name = "ollama"
	}
	factory, ok := backends[name]
	if !ok {
		return nil, &domain.ConfigError{
			Field:  "AI_PROVIDER",
			Reason: fmt.Sprintf("unknown provider %q (registered: %v)", name, Providers()),
		}
	}
	return factory(opts)
}

// BuildWithFallback constructs the configured backend, falling back to a
// default local Ollama instance when the primary cannot be built. Both
// failing is a configuration problem the caller should treat as fatal.
func BuildWithFallback(opts Options) (domain.LLMClient, error) {
	client, err := Build(opts)
	if err == nil {
		return client, nil
	}
	log.Printf("provider %s unavailable (%v), falling back to ollama", opts.Provider, err)

	fallback, ferr := NewOllamaClient(DefaultOllamaBaseURL, DefaultOllamaModel, opts.Temperature)
	if ferr != nil {
		return nil, &domain.ConfigError{
			Field:  "AI_PROVIDER",
			Reason: fmt.Sprintf("primary %s failed (%v) and ollama fallback failed (%v)", opts.Provider, err, ferr),
		}
	}
	return fallback, nil
}
