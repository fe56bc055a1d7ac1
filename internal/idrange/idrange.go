// Package idrange assigns the synthetic chunk ids documents occupy in a tenant's
// vector collection.
//
// Ids have the form "id<n>" with n starting at 1. Each document owns a contiguous,
// inclusive range; ranges for one owner never overlap and are never recycled, even
// after the document that held them is deleted.
package idrange

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
)

const idPrefix = "id"

// ErrRangeInFlight is returned when the owner's latest document is still being
// ingested, so the end of its range is not known yet.
var ErrRangeInFlight = errors.New("previous document ingestion still in progress")

// RangeLookup reads the allocation state of one owner.
type RangeLookup interface {
	// LatestRange returns the range of the owner's most recently created document
	// that still has one, or nil when there is none.
	LatestRange(ctx context.Context, ownerID int64) (*models.DocumentEmbeddingRange, error)
	// Watermark returns the highest id ever handed out to the owner, 0 if none.
	Watermark(ctx context.Context, ownerID int64) (int64, error)
}

// Chunk is one slice of document text plus the metadata stored alongside it.
type Chunk struct {
	Text     string
	Metadata map[string]any
}

// Batch holds the parallel slices passed to a collection upsert.
type Batch struct {
	IDs       []string
	Texts     []string
	Metadatas []map[string]any
}

// Namespace is the vector collection name for an owner.
func Namespace(ownerID int64) string {
	return fmt.Sprintf("user_%d", ownerID)
}

// FormatID renders n as a chunk id.
func FormatID(n int64) string {
	return idPrefix + strconv.FormatInt(n, 10)
}

// AllocateNextStart returns the first id of the next document uploaded by ownerID.
func AllocateNextStart(ctx context.Context, lookup RangeLookup, ownerID int64) (int64, error) {
	latest, err := lookup.LatestRange(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("latest range: %w", err)
	}

	next := int64(1)
	if latest != nil {
		if !latest.Committed() {
			return 0, ErrRangeInFlight
		}
		next = *latest.EndID + 1
	}

	watermark, err := lookup.Watermark(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("watermark: %w", err)
	}
	if watermark+1 > next {
		next = watermark + 1
	}
	return next, nil
}

// BuildUpsertBatch assigns ids to chunks starting at startID. The chunk order defines
// the assignment and must be reproduced exactly when the range is deleted.
func BuildUpsertBatch(chunks []Chunk, startID int64) Batch {
	b := Batch{
		IDs:       make([]string, len(chunks)),
		Texts:     make([]string, len(chunks)),
		Metadatas: make([]map[string]any, len(chunks)),
	}
	for i, c := range chunks {
		b.IDs[i] = FormatID(startID + int64(i))
		b.Texts[i] = c.Text
		b.Metadatas[i] = c.Metadata
	}
	return b
}

// IDsForDeletionRange lists every id in [startID, endID].
func IDsForDeletionRange(startID, endID int64) []string {
	if endID < startID {
		return nil
	}
	ids := make([]string, 0, endID-startID+1)
	for n := startID; n <= endID; n++ {
		ids = append(ids, FormatID(n))
	}
	return ids
}

// ParseTrailingInt extracts n from "id<n>". It reports false for anything else so
// callers can decide whether a malformed id is fatal.
func ParseTrailingInt(id string) (int64, bool) {
	i := strings.LastIndex(id, idPrefix)
	if i < 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(id[i+len(idPrefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
