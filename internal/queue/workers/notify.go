package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/notify"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/queue"
)

type NotifyWorker struct {
	mailer notify.Mailer
}

func NewNotifyWorker(mailer notify.Mailer) *NotifyWorker {
	return &NotifyWorker{mailer: mailer}
}

func (w *NotifyWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p queue.NotifyEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	return w.mailer.Send(ctx, notify.Email{
		From:    p.From,
		To:      p.To,
		Subject: p.Subject,
		Text:    p.Body,
	})
}
