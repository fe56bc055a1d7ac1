package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contents(chunks []TextChunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}

func TestNewRejectsOverlapNotBelowSize(t *testing.T) {
	_, err := New(ChunkOptions{ChunkSize: 20, ChunkOverlap: 20})
	require.Error(t, err)

	_, err = New(ChunkOptions{ChunkSize: 0})
	require.Error(t, err)
}

func TestRecursiveOverlap(t *testing.T) {
	c, err := New(ChunkOptions{ChunkSize: 10, ChunkOverlap: 5})
	require.NoError(t, err)

	got := c.Chunk("aaaa bbbb cccc dddd")

	assert.Equal(t, []string{"aaaa bbbb", "bbbb cccc", "cccc dddd"}, contents(got))
	for i, ch := range got {
		assert.Equal(t, i, ch.Index)
	}
}

func TestRecursiveFallsBackToFinerSeparators(t *testing.T) {
	c, err := New(ChunkOptions{ChunkSize: 12})
	require.NoError(t, err)

	got := c.Chunk("hello world again\n\nbye")

	assert.Equal(t, []string{"hello world", "again", "bye"}, contents(got))
}

func TestRecursiveRespectsChunkSize(t *testing.T) {
	c, err := New(DefaultOptions())
	require.NoError(t, err)

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 80) +
		"\n\n" + strings.Repeat("x", 1200)

	got := c.Chunk(text)
	require.NotEmpty(t, got)
	for _, ch := range got {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Content), 500)
		assert.NotEmpty(t, strings.TrimSpace(ch.Content))
	}
}

func TestShortTextIsSingleChunk(t *testing.T) {
	c, err := New(DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"para one.\n\npara two."}, contents(c.Chunk("para one.\n\npara two.")))
	assert.Empty(t, c.Chunk("   \n\n  "))
}

func TestFixedStrategy(t *testing.T) {
	c, err := New(ChunkOptions{ChunkSize: 4, ChunkOverlap: 1, Strategy: "fixed"})
	require.NoError(t, err)

	assert.Equal(t, []string{"abcd", "defg", "ghij"}, contents(c.Chunk("abcdefghij")))
}
