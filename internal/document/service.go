package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/queue"
	"github.com/garethbreeze1993/MCQ-Generator-AI/pkg/textextract"
)

var (
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrIngestInProgress = errors.New("document is still being ingested")
)

type store interface {
	Create(ctx context.Context, ownerID int64, name, storagePath string) (*models.Document, *models.DocumentEmbeddingRange, error)
	GetWithRange(ctx context.Context, id int64) (*models.Document, *models.DocumentEmbeddingRange, error)
	GetForOwner(ctx context.Context, ownerID, id int64) (*models.Document, error)
	ListByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]models.Document, error)
	CountByOwner(ctx context.Context, ownerID int64) (int, error)
	MarkFailed(ctx context.Context, doc *models.Document, lastAttemptedID int64) error
	Delete(ctx context.Context, id int64) error
}

type Enqueuer interface {
	EnqueueLibraryIngest(payload queue.LibraryIngestPayload) error
	EnqueueLibraryVectorDelete(payload queue.LibraryVectorDeletePayload) error
}

type Files interface {
	Save(ownerID int64, filename string, r io.Reader) (string, error)
	Remove(path string) error
}

type Service struct {
	repo  store
	files Files
	queue Enqueuer
}

func NewService(repo store, files Files, q Enqueuer) *Service {
	return &Service{repo: repo, files: files, queue: q}
}

// Upload stores the file, records the document with its reserved id range and
// queues ingestion. It returns idrange.ErrRangeInFlight while the owner's previous
// upload is still being ingested.
func (s *Service) Upload(ctx context.Context, ownerID int64, filename string, data io.Reader) (*models.Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(textextract.SupportedTypes(), ext) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	path, err := s.files.Save(ownerID, filename, data)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	doc, rng, err := s.repo.Create(ctx, ownerID, filepath.Base(filename), path)
	if err != nil {
		if rmErr := s.files.Remove(path); rmErr != nil {
			slog.Warn("failed to remove orphaned upload", "path", path, "error", rmErr)
		}
		return nil, err
	}

	if err := s.queue.EnqueueLibraryIngest(queue.LibraryIngestPayload{DocumentID: doc.ID}); err != nil {
		if markErr := s.repo.MarkFailed(ctx, doc, rng.StartID-1); markErr != nil {
			slog.Error("failed to mark document after enqueue error", "document_id", doc.ID, "error", markErr)
		}
		return nil, err
	}

	slog.Info("document uploaded", "document_id", doc.ID, "owner_id", ownerID, "start_id", rng.StartID)
	return doc, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id int64) (*models.Document, error) {
	return s.repo.GetForOwner(ctx, ownerID, id)
}

func (s *Service) List(ctx context.Context, ownerID int64, limit, offset int) ([]models.Document, error) {
	return s.repo.ListByOwner(ctx, ownerID, limit, offset)
}

// Delete removes the document and queues removal of its vectors. When it was the
// owner's last document the whole collection is dropped instead.
func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	if _, err := s.repo.GetForOwner(ctx, ownerID, id); err != nil {
		return err
	}

	doc, rng, err := s.repo.GetWithRange(ctx, id)
	if err != nil {
		return err
	}
	if rng != nil && !rng.Committed() {
		return ErrIngestInProgress
	}

	count, err := s.repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.files.Remove(doc.StoragePath); err != nil {
		slog.Warn("failed to remove document file", "document_id", id, "error", err)
	}

	// failed ingestions already compensated their vectors
	if rng == nil {
		return nil
	}

	payload := queue.LibraryVectorDeletePayload{
		OwnerID:        ownerID,
		StartID:        rng.StartID,
		EndID:          *rng.EndID,
		DropCollection: count == 1,
	}
	if err := s.queue.EnqueueLibraryVectorDelete(payload); err != nil {
		return fmt.Errorf("queue vector cleanup for document %d: %w", id, err)
	}
	return nil
}
