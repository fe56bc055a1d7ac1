package workers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/config"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/notify"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/queue"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/video"
)

// VideoTask is one attempt at generating a video.
type VideoTask func(ctx context.Context, videoID int64) error

type HealthGate interface {
	IsOnline(ctx context.Context) bool
}

type RetryMarker interface {
	MarkRetry(ctx context.Context, id int64) (*models.Video, error)
}

type Notifier interface {
	NotifyAPIDown(ctx context.Context, v *models.Video) error
}

// WithOnlineGate runs next only while the generation API is healthy. Otherwise the
// video is parked as retry for the sweep, an operator is alerted, and the attempt
// ends without error.
func WithOnlineGate(gate HealthGate, videos RetryMarker, notifier Notifier, next VideoTask) VideoTask {
	return func(ctx context.Context, videoID int64) error {
		if gate.IsOnline(ctx) {
			return next(ctx, videoID)
		}

		v, err := videos.MarkRetry(ctx, videoID)
		if errors.Is(err, video.ErrNotFound) {
			slog.Error("video does not exist, nothing to park", "video_id", videoID)
			return nil
		}
		if err != nil {
			return err
		}

		slog.Warn("video api offline, video parked for retry", "video_id", videoID)
		if err := notifier.NotifyAPIDown(ctx, v); err != nil {
			slog.Error("failed to queue api down alert", "video_id", videoID, "error", err)
		}
		return nil
	}
}

type EmailEnqueuer interface {
	EnqueueNotifyEmail(payload queue.NotifyEmailPayload) error
}

// OperatorAlerts sends alerts to the configured operator address through the
// notify:email task.
type OperatorAlerts struct {
	queue EmailEnqueuer
	from  string
	to    string
}

func NewOperatorAlerts(q EmailEnqueuer, cfg config.NotifyConfig) *OperatorAlerts {
	return &OperatorAlerts{queue: q, from: cfg.FromEmail, to: cfg.OperatorEmail}
}

func (a *OperatorAlerts) NotifyAPIDown(ctx context.Context, v *models.Video) error {
	if a.to == "" {
		slog.Warn("no operator email configured, api down alert dropped", "video_id", v.ID)
		return nil
	}
	subject, body := notify.APIDown(v)
	return a.queue.EnqueueNotifyEmail(queue.NotifyEmailPayload{
		To:      []string{a.to},
		From:    a.from,
		Subject: subject,
		Body:    body,
	})
}
