package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/idrange"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/queue"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/vectorstore"
)

type OwnerCounter interface {
	CountByOwner(ctx context.Context, ownerID int64) (int, error)
}

// VectorDeleteWorker removes the vectors of a deleted document.
type VectorDeleteWorker struct {
	docs    OwnerCounter
	vectors vectorstore.Store
}

func NewVectorDeleteWorker(docs OwnerCounter, vectors vectorstore.Store) *VectorDeleteWorker {
	return &VectorDeleteWorker{docs: docs, vectors: vectors}
}

func (w *VectorDeleteWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p queue.LibraryVectorDeletePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	ns := idrange.Namespace(p.OwnerID)

	if p.DropCollection {
		// a new upload may have landed since the delete was queued
		count, err := w.docs.CountByOwner(ctx, p.OwnerID)
		if err != nil {
			return err
		}
		if count == 0 {
			slog.Info("dropping collection", "collection", ns)
			return w.vectors.DeleteCollection(ctx, ns)
		}
	}

	coll, err := w.vectors.GetOrCreateCollection(ctx, ns)
	if err != nil {
		return err
	}
	if err := coll.Delete(ctx, idrange.IDsForDeletionRange(p.StartID, p.EndID)); err != nil {
		return err
	}
	slog.Info("deleted document vectors", "collection", ns, "start_id", p.StartID, "end_id", p.EndID)
	return nil
}
