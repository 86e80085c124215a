package domain

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// sourceDisplayCap bounds the combined chunk text shown for one source group.
const sourceDisplayCap = 300

// ContextAssembler turns rank-ordered retrieval results into the context
// string handed to the generation backend, and into the deduplicated source
// list shown to the user. It performs no network or index access.
//
// The zero value uses the default normalization and scoring heuristics; both
// can be overridden since neither is load-bearing.
type ContextAssembler struct {
	// Normalize derives the grouping key and display title from a raw
	// source name. Defaults to NormalizeSourceName.
	Normalize func(source string) string
	// Score assigns a display relevance to a group given the rank of its
	// best member. This is a presentation heuristic, not a similarity
	// score. Defaults to DisplayScore.
	Score func(rank int) float64
}

// NewContextAssembler returns an assembler with the default heuristics.
func NewContextAssembler() *ContextAssembler {
	return &ContextAssembler{}
}

// Assemble builds the prompt context and the grouped source list from
// results, which must already be ordered best-first.
//
// The context labels each chunk "Document N" in rank order, separated by
// blank lines. Sources are grouped by normalized document name; within a
// group chunk texts are concatenated in rank order and truncated for display.
func (a *ContextAssembler) Assemble(results []RetrievalResult) (string, []SourceGroup) {
	if len(results) == 0 {
		return "", nil
	}

	var ctx strings.Builder
	for i, r := range results {
		if i > 0 {
			ctx.WriteString("\n\n")
		}
		fmt.Fprintf(&ctx, "Document %d:\n%s", i+1, r.Chunk.Text)
	}

	return ctx.String(), a.groupSources(results)
}

func (a *ContextAssembler) groupSources(results []RetrievalResult) []SourceGroup {
	normalize := a.Normalize
	if normalize == nil {
		normalize = NormalizeSourceName
	}
	score := a.Score
	if score == nil {
		score = DisplayScore
	}

	var order []string
	byKey := map[string]*SourceGroup{}
	texts := map[string][]string{}
	for i, r := range results {
		title := normalize(r.Chunk.Source())
		if title == "" {
			title = fmt.Sprintf("Document %d", i+1)
		}
		g, ok := byKey[title]
		if !ok {
			// Rank of the group's best member, i.e. the result index
			// where the source first appears.
			g = &SourceGroup{
				Title:    title,
				Score:    score(i),
				Metadata: r.Chunk.Metadata,
			}
			byKey[title] = g
			order = append(order, title)
		}
		g.ChunksCombined++
		texts[title] = append(texts[title], r.Chunk.Text)
	}

	groups := make([]SourceGroup, 0, len(order))
	for _, key := range order {
		g := byKey[key]
		g.Content = truncate(strings.Join(texts[key], " "), sourceDisplayCap)
		groups = append(groups, *g)
	}
	return groups
}

// NormalizeSourceName reduces a file path or logical name to a display title:
// directory stripped, extension stripped, underscores and dashes replaced
// with spaces. Deterministic for identical inputs.
func NormalizeSourceName(source string) string {
	if source == "" {
		return ""
	}
	name := filepath.Base(source)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.TrimSpace(name)
}

// DisplayScore is the default group relevance heuristic: 1.0 - 0.1*rank,
// clamped at zero and rounded to two decimals.
func DisplayScore(rank int) float64 {
	s := 1.0 - 0.1*float64(rank)
	if s < 0 {
		s = 0
	}
	return math.Round(s*100) / 100
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
