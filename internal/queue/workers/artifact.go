package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/queue"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/storage"
)

type ArtifactWorker struct {
	store storage.ArtifactStore
}

func NewArtifactWorker(store storage.ArtifactStore) *ArtifactWorker {
	return &ArtifactWorker{store: store}
}

func (w *ArtifactWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p queue.VideoArtifactDeletePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	key := models.ArtifactKeyFor(p.VideoID)
	if err := w.store.Delete(ctx, key); err != nil {
		return err
	}
	slog.Info("deleted video artifact", "video_id", p.VideoID, "key", key)
	return nil
}
