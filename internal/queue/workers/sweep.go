package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/queue"
)

type RetryLister interface {
	ListIDsByStatus(ctx context.Context, status string) ([]int64, error)
}

type GenerateEnqueuer interface {
	EnqueueVideoGenerate(payload queue.VideoGeneratePayload) error
}

// SweepWorker re-queues every video parked as retry. Each video is handled on its
// own so one failed enqueue does not hold back the rest.
type SweepWorker struct {
	videos RetryLister
	queue  GenerateEnqueuer
}

func NewSweepWorker(videos RetryLister, q GenerateEnqueuer) *SweepWorker {
	return &SweepWorker{videos: videos, queue: q}
}

func (w *SweepWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	ids, err := w.videos.ListIDsByStatus(ctx, models.VideoStatusRetry)
	if err != nil {
		return fmt.Errorf("list retry videos: %w", err)
	}

	var errs []error
	for _, id := range ids {
		if err := w.queue.EnqueueVideoGenerate(queue.VideoGeneratePayload{VideoID: id}); err != nil {
			slog.Error("failed to requeue video", "video_id", id, "error", err)
			errs = append(errs, fmt.Errorf("video %d: %w", id, err))
		}
	}

	slog.Info("retry sweep finished", "videos", len(ids), "failed", len(errs))
	return errors.Join(errs...)
}
