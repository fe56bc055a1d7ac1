package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/queue"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/videoapi"
)

var ErrInvalidInput = errors.New("invalid video request")

type store interface {
	Create(ctx context.Context, ownerID int64, title, prompt string) (*models.Video, error)
	GetForOwner(ctx context.Context, ownerID, id int64) (*models.Video, error)
	ListByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]models.Video, error)
	DeleteForOwner(ctx context.Context, ownerID, id int64) (*models.Video, error)
	MarkRetry(ctx context.Context, id int64) (*models.Video, error)
}

type Enqueuer interface {
	EnqueueVideoGenerate(payload queue.VideoGeneratePayload) error
	EnqueueVideoArtifactDelete(payload queue.VideoArtifactDeletePayload) error
}

type PromptValidator interface {
	ValidatePromptLength(text string) error
}

type JobStatuser interface {
	Status(ctx context.Context, taskID string) (*videoapi.StatusResponse, error)
}

type Service struct {
	repo      store
	queue     Enqueuer
	validator PromptValidator
	api       JobStatuser
}

func NewService(repo store, q Enqueuer, validator PromptValidator, api JobStatuser) *Service {
	return &Service{repo: repo, queue: q, validator: validator, api: api}
}

// Create records a new video and queues its generation. If the queue is
// unreachable the video is parked for the retry sweep rather than lost.
func (s *Service) Create(ctx context.Context, ownerID int64, title, prompt string) (*models.Video, error) {
	title, prompt = strings.TrimSpace(title), strings.TrimSpace(prompt)
	if title == "" || prompt == "" {
		return nil, fmt.Errorf("%w: title and prompt are required", ErrInvalidInput)
	}
	if err := s.validator.ValidatePromptLength(prompt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	v, err := s.repo.Create(ctx, ownerID, title, prompt)
	if err != nil {
		return nil, err
	}

	if err := s.queue.EnqueueVideoGenerate(queue.VideoGeneratePayload{VideoID: v.ID}); err != nil {
		slog.Error("failed to enqueue video generation, parking for retry", "video_id", v.ID, "error", err)
		parked, markErr := s.repo.MarkRetry(ctx, v.ID)
		if markErr != nil {
			return nil, fmt.Errorf("park video %d: %w", v.ID, markErr)
		}
		return parked, nil
	}
	return v, nil
}

// Detail is a video plus, while it is generating, what the generation API reports.
type Detail struct {
	*models.Video
	Job *videoapi.StatusResponse `json:"job,omitempty"`
}

func (s *Service) Get(ctx context.Context, ownerID, id int64) (*Detail, error) {
	v, err := s.repo.GetForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	d := &Detail{Video: v}
	if v.Status == models.VideoStatusProcessing && v.CeleryTaskID != nil {
		job, err := s.api.Status(ctx, *v.CeleryTaskID)
		if err != nil {
			slog.Warn("failed to fetch video job status", "video_id", v.ID, "error", err)
		} else {
			d.Job = job
		}
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, ownerID int64, limit, offset int) ([]models.Video, error) {
	return s.repo.ListByOwner(ctx, ownerID, limit, offset)
}

// Delete removes the video. A completed video's artifact is removed from object
// storage in the background.
func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	v, err := s.repo.DeleteForOwner(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if v.Status != models.VideoStatusCompleted {
		return nil
	}
	if err := s.queue.EnqueueVideoArtifactDelete(queue.VideoArtifactDeletePayload{VideoID: v.ID}); err != nil {
		return fmt.Errorf("queue artifact delete for video %d: %w", v.ID, err)
	}
	return nil
}
