package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type Chunker interface {
	Chunk(text string) []TextChunk
}

type ChunkOptions struct {
	ChunkSize    int    // maximum chunk size in characters
	ChunkOverlap int    // characters shared by neighbouring chunks, must be < ChunkSize
	Strategy     string // "recursive" or "fixed"
	Separators   []string
}

type TextChunk struct {
	Content string
	Index   int
}

func DefaultOptions() ChunkOptions {
	return ChunkOptions{
		ChunkSize:    500,
		ChunkOverlap: 20,
		Strategy:     "recursive",
		Separators:   []string{"\n\n", "\n", " ", ""},
	}
}

func (o ChunkOptions) Validate() error {
	if o.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", o.ChunkSize)
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be in [0, %d)", o.ChunkOverlap, o.ChunkSize)
	}
	return nil
}

type defaultChunker struct {
	opts ChunkOptions
}

func New(opts ChunkOptions) (Chunker, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(opts.Separators) == 0 {
		opts.Separators = DefaultOptions().Separators
	}
	return &defaultChunker{opts: opts}, nil
}

func (c *defaultChunker) Chunk(text string) []TextChunk {
	var parts []string
	switch c.opts.Strategy {
	case "fixed":
		parts = c.splitFixed(text)
	default:
		parts = c.splitRecursive(text, c.opts.Separators)
	}

	chunks := make([]TextChunk, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		chunks = append(chunks, TextChunk{Content: p, Index: len(chunks)})
	}
	return chunks
}

func (c *defaultChunker) splitFixed(text string) []string {
	var out []string
	runes := []rune(text)
	step := c.opts.ChunkSize - c.opts.ChunkOverlap

	for start := 0; start < len(runes); start += step {
		end := min(start+c.opts.ChunkSize, len(runes))
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// splitRecursive splits on the first separator present in text, recursing into pieces
// that are still too long with the remaining separators, then merges small pieces
// back together up to the chunk size.
func (c *defaultChunker) splitRecursive(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, s := range separators {
		if s == "" {
			sep = s
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	var out, small []string
	for _, piece := range strings.Split(text, sep) {
		if piece == "" {
			continue
		}
		if runeLen(piece) < c.opts.ChunkSize {
			small = append(small, piece)
			continue
		}
		if len(small) > 0 {
			out = append(out, c.merge(small, sep)...)
			small = nil
		}
		if len(rest) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, c.splitRecursive(piece, rest)...)
		}
	}
	if len(small) > 0 {
		out = append(out, c.merge(small, sep)...)
	}
	return out
}

// merge joins consecutive pieces into chunks no longer than ChunkSize, carrying up to
// ChunkOverlap characters of trailing pieces into the next chunk.
func (c *defaultChunker) merge(pieces []string, sep string) []string {
	sepLen := runeLen(sep)
	var out, current []string
	total := 0

	joinedLen := func(n int) int {
		if len(current) > 0 {
			return total + n + sepLen
		}
		return total + n
	}

	for _, p := range pieces {
		n := runeLen(p)
		if joinedLen(n) > c.opts.ChunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, sep)); doc != "" {
				out = append(out, doc)
			}
			for total > c.opts.ChunkOverlap || (joinedLen(n) > c.opts.ChunkSize && total > 0) {
				drop := runeLen(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}
		if len(current) > 0 {
			total += sepLen
		}
		current = append(current, p)
		total += n
	}

	if doc := strings.TrimSpace(strings.Join(current, sep)); doc != "" {
		out = append(out, doc)
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
