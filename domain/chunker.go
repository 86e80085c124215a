package domain

import (
	"strconv"
	"strings"
)

// DefaultSeparators is the split priority for the chunker: paragraph break,
// line break, sentence end, word boundary, and finally single characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunker splits document text into overlapping fixed-size chunks. It prefers
// natural break points by trying coarse separators first and recursing into
// finer ones only for pieces that still exceed the chunk size.
//
// Splitting is a pure function of the input text and the configuration.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewChunker creates a Chunker. chunkOverlap must be non-negative and
// strictly smaller than chunkSize.
func NewChunker(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, &ConfigError{Field: "chunk_size", Reason: "must be > 0"}
	}
	if chunkOverlap < 0 {
		return nil, &ConfigError{Field: "chunk_overlap", Reason: "must be >= 0"}
	}
	if chunkOverlap >= chunkSize {
		return nil, &ConfigError{Field: "chunk_overlap", Reason: "must be smaller than chunk_size"}
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   DefaultSeparators,
	}, nil
}

// Split chunks text, stamping each chunk with the originating document name.
// Empty or whitespace-only input yields no chunks.
func (c *Chunker) Split(text, sourceID string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pieces := c.splitText(text, c.separators)
	chunks := make([]Chunk, 0, len(pieces))
	for i, p := range pieces {
		chunks = append(chunks, Chunk{
			Text: p,
			Metadata: map[string]string{
				"source":      sourceID,
				"chunk_index": strconv.Itoa(i),
			},
		})
	}
	return chunks
}

// splitText splits on the coarsest separator present in text, recursing into
// the remaining separators for any piece that is still too large, then merges
// adjacent pieces back up to the chunk size with overlap carry.
func (c *Chunker) splitText(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, s := range separators {
		if s == "" {
			sep = s
			rest = nil
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	var final []string
	var good []string
	for _, piece := range splitKeeping(text, sep) {
		if len(piece) < c.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, c.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			// No finer separator left; emit oversize as-is.
			final = append(final, piece)
		} else {
			final = append(final, c.splitText(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, c.merge(good)...)
	}
	return final
}

// merge greedily packs consecutive pieces into chunks of at most chunkSize
// characters. When a chunk is emitted, pieces are dropped from the front
// until at most chunkOverlap characters remain; those carry into the next
// chunk as trailing context.
func (c *Chunker) merge(pieces []string) []string {
	var out []string
	var window []string
	total := 0
	for _, p := range pieces {
		if total+len(p) > c.chunkSize && len(window) > 0 {
			if doc := strings.TrimSpace(strings.Join(window, "")); doc != "" {
				out = append(out, doc)
			}
			for total > c.chunkOverlap || (total+len(p) > c.chunkSize && total > 0) {
				total -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, p)
		total += len(p)
	}
	if doc := strings.TrimSpace(strings.Join(window, "")); doc != "" {
		out = append(out, doc)
	}
	return out
}

// splitKeeping splits text on sep with the separator kept at the end of each
// piece, so rejoining pieces reproduces the original text. An empty sep
// splits into individual runes.
func splitKeeping(text, sep string) []string {
	var raw []string
	if sep == "" {
		raw = strings.Split(text, "")
	} else {
		raw = strings.SplitAfter(text, sep)
	}
	pieces := raw[:0]
	for _, p := range raw {
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}
