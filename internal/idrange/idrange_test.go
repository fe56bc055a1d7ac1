package idrange

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
)

type fakeLookup struct {
	latest    *models.DocumentEmbeddingRange
	watermark int64
	err       error
}

func (f *fakeLookup) LatestRange(ctx context.Context, ownerID int64) (*models.DocumentEmbeddingRange, error) {
	return f.latest, f.err
}

func (f *fakeLookup) Watermark(ctx context.Context, ownerID int64) (int64, error) {
	return f.watermark, nil
}

func committed(start, end int64) *models.DocumentEmbeddingRange {
	return &models.DocumentEmbeddingRange{StartID: start, EndID: &end}
}

func TestAllocateNextStart(t *testing.T) {
	tests := []struct {
		name    string
		lookup  *fakeLookup
		want    int64
		wantErr error
	}{
		{name: "first document starts at one", lookup: &fakeLookup{}, want: 1},
		{name: "follows previous end", lookup: &fakeLookup{latest: committed(1, 271), watermark: 271}, want: 272},
		{name: "skips ids abandoned by deleted documents", lookup: &fakeLookup{latest: committed(1, 271), watermark: 341}, want: 342},
		{name: "no documents left but ids were used", lookup: &fakeLookup{watermark: 25}, want: 26},
		{name: "open range", lookup: &fakeLookup{latest: &models.DocumentEmbeddingRange{StartID: 10}}, wantErr: ErrRangeInFlight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AllocateNextStart(context.Background(), tt.lookup, 7)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllocateNextStartLookupError(t *testing.T) {
	_, err := AllocateNextStart(context.Background(), &fakeLookup{err: errors.New("conn reset")}, 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conn reset")
}

func TestSequentialIngestionsAreContiguous(t *testing.T) {
	lookup := &fakeLookup{}
	chunkCounts := []int{3, 1, 12, 5}

	var prevEnd int64
	for i, n := range chunkCounts {
		start, err := AllocateNextStart(context.Background(), lookup, 1)
		require.NoError(t, err)
		if i > 0 {
			assert.Equal(t, prevEnd+1, start, "ingestion %d", i)
		}

		batch := BuildUpsertBatch(make([]Chunk, n), start)
		end, ok := ParseTrailingInt(batch.IDs[len(batch.IDs)-1])
		require.True(t, ok)

		lookup.latest = committed(start, end)
		lookup.watermark = end
		prevEnd = end
	}
	assert.Equal(t, int64(21), prevEnd)
}

func TestBuildUpsertBatch(t *testing.T) {
	chunks := []Chunk{
		{Text: "alpha", Metadata: map[string]any{"page": 0}},
		{Text: "beta", Metadata: map[string]any{"page": 0}},
		{Text: "gamma", Metadata: map[string]any{"page": 1}},
	}

	b := BuildUpsertBatch(chunks, 10)

	assert.Equal(t, []string{"id10", "id11", "id12"}, b.IDs)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, b.Texts)
	assert.Equal(t, 1, b.Metadatas[2]["page"])
}

func TestIDsForDeletionRange(t *testing.T) {
	ids := IDsForDeletionRange(1, 25)

	require.Len(t, ids, 25)
	assert.Equal(t, "id1", ids[0])
	assert.Equal(t, "id25", ids[24])
	for i, id := range ids {
		assert.Equal(t, FormatID(int64(i+1)), id)
	}

	assert.Equal(t, []string{"id7"}, IDsForDeletionRange(7, 7))
	assert.Empty(t, IDsForDeletionRange(8, 7))
}

func TestDeletionRangeMatchesUpsertBatch(t *testing.T) {
	b := BuildUpsertBatch(make([]Chunk, 6), 10)
	assert.Equal(t, b.IDs, IDsForDeletionRange(10, 15))
}

func TestParseTrailingInt(t *testing.T) {
	n, ok := ParseTrailingInt("id456")
	require.True(t, ok)
	assert.Equal(t, int64(456), n)

	for _, bad := range []string{"idnonumber", "", "456", "id", "id12x"} {
		_, ok := ParseTrailingInt(bad)
		assert.False(t, ok, bad)
	}
}

func TestNamespace(t *testing.T) {
	assert.Equal(t, "user_42", Namespace(42))
}
