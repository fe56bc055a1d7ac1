package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/cache"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/document"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/idrange"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/queue"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/vectorstore"
	"github.com/garethbreeze1993/MCQ-Generator-AI/pkg/chunker"
	"github.com/garethbreeze1993/MCQ-Generator-AI/pkg/textextract"
)

// ErrNoContent is returned for a document that yields no text at all.
var ErrNoContent = errors.New("document has no extractable text")

type DocumentStore interface {
	GetWithRange(ctx context.Context, id int64) (*models.Document, *models.DocumentEmbeddingRange, error)
	InTx(ctx context.Context, fn func(document.Tx) error) error
	MarkFailed(ctx context.Context, doc *models.Document, lastAttemptedID int64) error
	CountByOwner(ctx context.Context, ownerID int64) (int, error)
}

type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// PageOpener opens a stored document as a page stream.
type PageOpener func(path string) (textextract.PageStream, error)

type DocumentWorker struct {
	docs    DocumentStore
	vectors vectorstore.Store
	chunker chunker.Chunker
	locker  Locker
	open    PageOpener
	lockTTL time.Duration
}

func NewDocumentWorker(docs DocumentStore, vectors vectorstore.Store, ch chunker.Chunker, locker Locker) *DocumentWorker {
	return &DocumentWorker{
		docs:    docs,
		vectors: vectors,
		chunker: ch,
		locker:  locker,
		open:    textextract.Open,
		lockTTL: 30 * time.Minute,
	}
}

// ingestRun tracks how far one ingestion got into the owner's id space.
type ingestRun struct {
	newID         int64 // first id reserved for the document
	lastID        int64 // last id written successfully
	lastAttempted int64 // last id sent to the vector store, written or not
}

func (r *ingestRun) wrote() bool { return r.lastID >= r.newID }

func (w *DocumentWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.LibraryIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	release, err := w.locker.Lock(ctx, cache.IngestLockKey(payload.DocumentID), w.lockTTL)
	if errors.Is(err, cache.ErrLockHeld) {
		slog.Warn("document ingestion already running", "document_id", payload.DocumentID)
		return nil
	}
	if err != nil {
		return err
	}
	defer release()

	doc, rng, err := w.docs.GetWithRange(ctx, payload.DocumentID)
	if err != nil {
		return fmt.Errorf("load document %d: %w: %w", payload.DocumentID, err, asynq.SkipRetry)
	}
	if rng == nil {
		return fmt.Errorf("document %d has no embedding range: %w", doc.ID, asynq.SkipRetry)
	}
	if rng.Committed() {
		slog.Info("document already ingested", "document_id", doc.ID)
		return nil
	}

	slog.Info("ingesting document", "document_id", doc.ID, "owner_id", doc.OwnerID, "start_id", rng.StartID)

	run := &ingestRun{newID: rng.StartID, lastID: rng.StartID - 1, lastAttempted: rng.StartID - 1}
	err = w.docs.InTx(ctx, func(tx document.Tx) error {
		return w.ingest(ctx, tx, doc, run)
	})
	if err != nil {
		err = errors.Join(err, w.fail(ctx, doc, run))
		return fmt.Errorf("ingest document %d: %w: %w", doc.ID, err, asynq.SkipRetry)
	}

	attrs := []any{"document_id", doc.ID, "start_id", run.newID, "end_id", run.lastID}
	if n, err := w.collectionCount(ctx, doc.OwnerID); err != nil {
		slog.Warn("failed to count collection", "document_id", doc.ID, "error", err)
	} else {
		attrs = append(attrs, "collection_count", n)
	}
	slog.Info("document ingested", attrs...)
	return nil
}

func (w *DocumentWorker) collectionCount(ctx context.Context, ownerID int64) (int, error) {
	coll, err := w.vectors.GetOrCreateCollection(ctx, idrange.Namespace(ownerID))
	if err != nil {
		return 0, err
	}
	return coll.Count(ctx)
}

func (w *DocumentWorker) ingest(ctx context.Context, tx document.Tx, doc *models.Document, run *ingestRun) error {
	if err := tx.SetStatus(ctx, doc.ID, models.DocStatusProcessing); err != nil {
		return err
	}

	coll, err := w.vectors.GetOrCreateCollection(ctx, idrange.Namespace(doc.OwnerID))
	if err != nil {
		return err
	}

	pages, err := w.open(doc.StoragePath)
	if err != nil {
		return err
	}
	defer pages.Close()

	for {
		page, err := pages.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(page.Content) == "" {
			continue
		}

		parts := w.chunker.Chunk(page.Content)
		if len(parts) == 0 {
			continue
		}
		chunks := make([]idrange.Chunk, len(parts))
		for i, p := range parts {
			chunks[i] = idrange.Chunk{
				Text: p.Content,
				Metadata: map[string]any{
					"page":        page.Number,
					"source":      doc.Name,
					"document_id": doc.ID,
				},
			}
		}

		batch := idrange.BuildUpsertBatch(chunks, run.lastID+1)
		end, ok := idrange.ParseTrailingInt(batch.IDs[len(batch.IDs)-1])
		if !ok {
			return fmt.Errorf("page %d: malformed chunk id %q", page.Number, batch.IDs[len(batch.IDs)-1])
		}
		run.lastAttempted = end
		if err := coll.Upsert(ctx, batch.IDs, batch.Metadatas, batch.Texts); err != nil {
			return fmt.Errorf("upsert page %d: %w", page.Number, err)
		}
		run.lastID = end
	}

	if !run.wrote() {
		return ErrNoContent
	}

	if err := tx.SetStatus(ctx, doc.ID, models.DocStatusCompleted); err != nil {
		return err
	}
	return tx.CompleteRange(ctx, doc, run.lastID)
}

// fail records the failure after the ingestion transaction has rolled back, then
// removes any vectors that reached the store.
func (w *DocumentWorker) fail(ctx context.Context, doc *models.Document, run *ingestRun) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
	defer cancel()

	var errs []error
	if err := w.docs.MarkFailed(ctx, doc, run.lastAttempted); err != nil {
		slog.Error("failed to mark document as error", "document_id", doc.ID, "error", err)
		errs = append(errs, err)
	}

	if run.wrote() {
		if err := w.compensate(ctx, doc, run); err != nil {
			slog.Error("vector cleanup failed", "document_id", doc.ID, "start_id", run.newID, "end_id", run.lastID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *DocumentWorker) compensate(ctx context.Context, doc *models.Document, run *ingestRun) error {
	ns := idrange.Namespace(doc.OwnerID)

	count, err := w.docs.CountByOwner(ctx, doc.OwnerID)
	if err != nil {
		return err
	}
	if count == 1 {
		slog.Info("dropping collection of failed only document", "document_id", doc.ID, "collection", ns)
		return w.vectors.DeleteCollection(ctx, ns)
	}

	coll, err := w.vectors.GetOrCreateCollection(ctx, ns)
	if err != nil {
		return err
	}
	slog.Info("deleting partial vectors", "document_id", doc.ID, "start_id", run.newID, "end_id", run.lastID)
	return coll.Delete(ctx, idrange.IDsForDeletionRange(run.newID, run.lastID))
}
