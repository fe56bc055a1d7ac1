package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/config"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/queue"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/video"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/videoapi"
)

type VideoStore interface {
	RetryMarker
	Get(ctx context.Context, id int64) (*models.Video, error)
	CountByStatus(ctx context.Context, status string) (int, error)
	SaveDispatch(ctx context.Context, id int64, from, status, correlationID string) error
}

type VideoAPI interface {
	HealthGate
	Generate(ctx context.Context, in videoapi.GenerateRequest) (string, error)
}

type VideoRescheduler interface {
	EnqueueVideoGenerateIn(payload queue.VideoGeneratePayload, delay time.Duration) error
}

type VideoWorker struct {
	videos  VideoStore
	api     VideoAPI
	queue   VideoRescheduler
	ceiling int
	delay   time.Duration
	ack     string
	task    VideoTask
}

func NewVideoWorker(videos VideoStore, api VideoAPI, q VideoRescheduler, notifier Notifier, cfg config.VideoAPIConfig) *VideoWorker {
	w := &VideoWorker{
		videos:  videos,
		api:     api,
		queue:   q,
		ceiling: cfg.ConcurrencyCeiling,
		delay:   cfg.BackpressureDelay,
		ack:     cfg.AckMessage,
	}
	if w.ack == "" {
		w.ack = config.DefaultAckMessage
	}
	w.task = WithOnlineGate(api, videos, notifier, w.generate)
	return w
}

func (w *VideoWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.VideoGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	return w.task(ctx, payload.VideoID)
}

// generate dispatches one video to the generation API. Whatever happens, the
// status reached and the correlation id of this attempt are written back on exit.
func (w *VideoWorker) generate(ctx context.Context, videoID int64) (err error) {
	v, err := w.videos.Get(ctx, videoID)
	if errors.Is(err, video.ErrNotFound) {
		slog.Error("video does not exist, skipping generation", "video_id", videoID)
		return nil
	}
	if err != nil {
		return err
	}

	status := v.Status
	correlationID := correlationIDFrom(ctx)

	defer func() {
		// persist even when the task context is done
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		saveErr := w.videos.SaveDispatch(saveCtx, videoID, v.Status, status, correlationID)
		if errors.Is(saveErr, video.ErrDispatchSuperseded) {
			slog.Warn("video changed during dispatch, keeping its current state", "video_id", videoID, "attempt_status", status, "error", saveErr)
			return
		}
		if saveErr != nil {
			slog.Error("failed to persist video dispatch", "video_id", videoID, "status", status, "error", saveErr)
			err = errors.Join(err, saveErr)
		}
	}()

	processing, err := w.videos.CountByStatus(ctx, models.VideoStatusProcessing)
	if err != nil {
		return err
	}
	if processing > w.ceiling {
		slog.Info("video api at capacity, rescheduling", "video_id", videoID, "processing", processing, "delay", w.delay)
		if err := w.queue.EnqueueVideoGenerateIn(queue.VideoGeneratePayload{VideoID: videoID}, w.delay); err != nil {
			// park it for the sweep, nothing else would pick it up again
			status = models.VideoStatusRetry
			return err
		}
		return nil
	}

	msg, err := w.api.Generate(ctx, videoapi.GenerateRequest{
		Prompt:       v.Prompt,
		VideoID:      videoID,
		CeleryTaskID: correlationID,
	})
	if err != nil {
		status = models.VideoStatusError
		return err
	}

	if msg != w.ack {
		status = models.VideoStatusError
		slog.Error("video api accepted request but did not start the job",
			"video_id", videoID, "http", "success", "outcome", "logical failure", "message", msg)
		return nil
	}

	status = models.VideoStatusProcessing
	slog.Info("video generation started", "video_id", videoID, "correlation_id", correlationID)
	return nil
}

func correlationIDFrom(ctx context.Context) string {
	if id, ok := asynq.GetTaskID(ctx); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
