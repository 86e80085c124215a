package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ragdocs/domain"
)

const (
	// DefaultOllamaBaseURL is the conventional local Ollama address, also
	// used as the fallback backend when the configured provider cannot be
	// constructed.
	DefaultOllamaBaseURL = "http://localhost:11434"
	// DefaultOllamaModel is the fallback model.
	DefaultOllamaModel = "llama2"
)

// OllamaClient implements domain.LLMClient against a local Ollama server's
// generate endpoint. Free to run; no API key involved.
type OllamaClient struct {
	baseURL     string
	model       string
	temperature float32
	client      *http.Client
}

// NewOllamaClient creates the client and verifies the server is reachable,
// so a dead local server fails construction instead of every later call.
func NewOllamaClient(baseURL, model string, temperature float32) (*OllamaClient, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	c := &OllamaClient{
		baseURL:     baseURL,
		model:       model,
		temperature: temperature,
		client:      &http.Client{},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama server unreachable at %s: %w", baseURL, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ollama server at %s returned %s", baseURL, resp.Status)
	}
	return c, nil
}

// Provider returns "ollama".
func (c *OllamaClient) Provider() string { return "ollama" }

// Complete sends the prompt to /api/generate and returns the full response.
func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": c.temperature,
		},
	})
	if err != nil {
		return "", &domain.GenerationError{Provider: "ollama", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", &domain.GenerationError{Provider: "ollama", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", domain.ErrTimeout
		}
		return "", &domain.GenerationError{Provider: "ollama", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", &domain.GenerationError{
			Provider: "ollama",
			Err:      fmt.Errorf("generate returned %s", resp.Status),
		}
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &domain.GenerationError{Provider: "ollama", Err: err}
	}
	return out.Response, nil
}
