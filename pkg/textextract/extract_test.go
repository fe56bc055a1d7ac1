package textextract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenTXTSplitsOnFormFeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("first page\n\fsecond page\f\f"), 0o600))

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	pages, err := Drain(s)
	require.NoError(t, err)
	require.Len(t, pages, 4)
	assert.Equal(t, Page{Number: 0, Content: "first page"}, pages[0])
	assert.Equal(t, Page{Number: 1, Content: "second page"}, pages[1])
	assert.Empty(t, pages[2].Content)
}

func TestOpenUnsupportedType(t *testing.T) {
	_, err := Open("slides.pptx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestOpenPDFMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
}
