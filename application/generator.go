package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"ragdocs/domain"
)

// TimeoutAnswer is the fixed user-facing message returned when the
// generation backend exceeds its time budget.
const TimeoutAnswer = "I'm sorry, but the response is taking too long. " +
	"Please try asking a simpler question or check if the model server is running properly."

const answerPrompt = `You are a helpful AI assistant. Use the following context to answer the user's question.

Context:
%s

Question: %s

Instructions:
1. Answer based ONLY on the provided context
2. If the context doesn't contain enough information, say so
3. Be concise but informative
4. Cite which document(s) you used

Answer:`

const summaryPrompt = `Please provide a concise summary of the following text in %d words or less:

%s

Summary:`

const questionsPrompt = `Based on the following text, generate %d interesting questions that someone might ask:

%s

Questions:
1.`

// Generator produces answers, summaries and questions through a single
// language-model backend. All calls share one bounded wait; exceeding it is
// reported as domain.ErrTimeout rather than a generic failure.
type Generator struct {
	llm     domain.LLMClient
	timeout time.Duration
}

// NewGenerator wraps the given backend. timeout bounds every completion call.
func NewGenerator(llm domain.LLMClient, timeout time.Duration) *Generator {
	return &Generator{llm: llm, timeout: timeout}
}

// Provider returns the backing provider name.
func (g *Generator) Provider() string { return g.llm.Provider() }

// Generate answers the question from the supplied context string.
func (g *Generator) Generate(ctx context.Context, question, contextStr string) (string, error) {
	return g.complete(ctx, fmt.Sprintf(answerPrompt, contextStr, question))
}

// Summarize produces a summary of text bounded to roughly maxWords words.
func (g *Generator) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	if maxWords <= 0 {
		maxWords = 200
	}
	return g.complete(ctx, fmt.Sprintf(summaryPrompt, maxWords, text))
}

// GenerateQuestions asks the backend for n questions about text and parses
// them out of the free-form reply. Models that return fewer than n are
// tolerated.
func (g *Generator) GenerateQuestions(ctx context.Context, text string, n int) ([]string, error) {
	if n <= 0 {
		n = 3
	}
	response, err := g.complete(ctx, fmt.Sprintf(questionsPrompt, n, text))
	if err != nil {
		return nil, err
	}
	questions := ParseListItems(response)
	if len(questions) > n {
		questions = questions[:n]
	}
	return questions, nil
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	answer, err := g.llm.Complete(callCtx, prompt)
	if err != nil {
		if errors.Is(err, domain.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			log.Printf("Generation timed out after %s (%s)", g.timeout, g.llm.Provider())
			return "", domain.ErrTimeout
		}
		var genErr *domain.GenerationError
		if errors.As(err, &genErr) {
			return "", err
		}
		return "", &domain.GenerationError{Provider: g.llm.Provider(), Err: err}
	}
	return strings.TrimSpace(answer), nil
}

// ParseListItems extracts items from a numbered or bulleted list in
// free-form model output. Lines that are neither are ignored.
func ParseListItems(response string) []string {
	var items []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*"):
			if item := strings.TrimSpace(line[1:]); item != "" {
				items = append(items, item)
			}
		case startsWithNumber(line):
			i := 0
			for line[i] >= '0' && line[i] <= '9' {
				i++
			}
			if item := strings.TrimSpace(line[i+1:]); item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}

func startsWithNumber(line string) bool {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	return i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')')
}
