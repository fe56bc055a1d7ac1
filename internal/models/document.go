package models

import "time"

type Document struct {
	ID          int64     `json:"id" db:"id"`
	OwnerID     int64     `json:"owner_id" db:"owner_id"`
	Name        string    `json:"name" db:"name"`
	StoragePath string    `json:"-" db:"storage_path"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// DocumentEmbeddingRange is the inclusive id range a document's chunks occupy in its
// owner's vector collection. EndID stays nil until ingestion completes.
type DocumentEmbeddingRange struct {
	ID         int64  `json:"id" db:"id"`
	DocumentID int64  `json:"document_id" db:"document_id"`
	StartID    int64  `json:"start_id" db:"start_id"`
	EndID      *int64 `json:"end_id,omitempty" db:"end_id"`
}

// Committed reports whether ingestion finished and the range end is known.
func (r *DocumentEmbeddingRange) Committed() bool {
	return r != nil && r.EndID != nil
}

const (
	DocStatusUploaded   = "uploaded"
	DocStatusProcessing = "processing"
	DocStatusCompleted  = "completed"
	DocStatusError      = "error"
)
