package models

import "fmt"

type Video struct {
	ID           int64   `json:"id" db:"id"`
	OwnerID      int64   `json:"owner_id" db:"owner_id"`
	Title        string  `json:"title" db:"title"`
	Prompt       string  `json:"prompt" db:"prompt"`
	Status       string  `json:"status" db:"status"`
	CeleryTaskID *string `json:"celery_task_id,omitempty" db:"celery_task_id"`
	SThreeURL    *string `json:"s_three_url,omitempty" db:"s_three_url"`
}

const (
	VideoStatusUploaded   = "uploaded"
	VideoStatusProcessing = "processing"
	VideoStatusCompleted  = "completed"
	VideoStatusError      = "error"
	VideoStatusRetry      = "retry"
)

// ArtifactKeyFor is the object storage key of a finished video.
func ArtifactKeyFor(videoID int64) string {
	return fmt.Sprintf("videos/%d.mp4", videoID)
}
