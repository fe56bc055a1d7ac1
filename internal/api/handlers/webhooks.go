package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/video"
)

// WebhookRecorder persists the outcome the video API reports for a job.
type WebhookRecorder interface {
	ApplyWebhook(ctx context.Context, id int64, status string, artifactURL string) error
}

// VideoWebhookHandler receives completion callbacks from the video generation API.
// It is the only writer of a video's artifact url.
type VideoWebhookHandler struct {
	videos WebhookRecorder
	secret string
}

func NewVideoWebhookHandler(videos WebhookRecorder, secret string) *VideoWebhookHandler {
	return &VideoWebhookHandler{videos: videos, secret: secret}
}

var webhookFields = []string{"video_id", "job_id", "status", "completed_at", "video_url", "error_message"}

type completionPayload struct {
	VideoID      int64   `json:"video_id"`
	JobID        string  `json:"job_id"`
	Status       string  `json:"status"`
	CompletedAt  *string `json:"completed_at"`
	VideoURL     *string `json:"video_url"`
	ErrorMessage *string `json:"error_message"`
}

var webhookStatuses = map[string]bool{
	models.VideoStatusUploaded:   true,
	models.VideoStatusProcessing: true,
	models.VideoStatusCompleted:  true,
	models.VideoStatusError:      true,
	models.VideoStatusRetry:      true,
}

func (h *VideoWebhookHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	for _, f := range webhookFields {
		if _, ok := raw[f]; !ok {
			writeError(w, http.StatusBadRequest, "Missing fields")
			return
		}
	}

	var p completionPayload
	if err := json.Unmarshal(body, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if !webhookStatuses[p.Status] {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	if p.Status == models.VideoStatusCompleted && strings.TrimSpace(deref(p.VideoURL)) == "" {
		writeError(w, http.StatusBadRequest, "Missing video_url")
		return
	}

	if p.Status == models.VideoStatusError {
		slog.Error("video generation failed", "video_id", p.VideoID, "job_id", p.JobID, "error_message", deref(p.ErrorMessage))
	}

	if err := h.videos.ApplyWebhook(r.Context(), p.VideoID, p.Status, deref(p.VideoURL)); err != nil {
		if errors.Is(err, video.ErrNotFound) {
			slog.Error("webhook for unknown video", "video_id", p.VideoID, "job_id", p.JobID)
		} else {
			slog.Error("failed to apply video webhook", "video_id", p.VideoID, "error", err)
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	slog.Info("video webhook processed", "video_id", p.VideoID, "job_id", p.JobID, "status", p.Status)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Webhook processed"})
}

func (h *VideoWebhookHandler) authorized(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || h.secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) == 1
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
