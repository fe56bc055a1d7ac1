package video

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/database"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
)

var (
	ErrNotFound           = errors.New("video not found")
	ErrDispatchSuperseded = errors.New("video status changed during dispatch")
)

const videoColumns = "id, owner_id, title, prompt, status, celery_task_id, s_three_url"

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, ownerID int64, title, prompt string) (*models.Video, error) {
	return scanVideo(r.db.QueryRow(ctx,
		`INSERT INTO videos (owner_id, title, prompt, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+videoColumns,
		ownerID, title, prompt, models.VideoStatusUploaded,
	))
}

func (r *Repository) Get(ctx context.Context, id int64) (*models.Video, error) {
	return scanVideo(r.db.QueryRow(ctx, "SELECT "+videoColumns+" FROM videos WHERE id = $1", id))
}

func (r *Repository) GetForOwner(ctx context.Context, ownerID, id int64) (*models.Video, error) {
	return scanVideo(r.db.QueryRow(ctx,
		"SELECT "+videoColumns+" FROM videos WHERE id = $1 AND owner_id = $2", id, ownerID))
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]models.Video, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+videoColumns+" FROM videos WHERE owner_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3",
		ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	videos, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Video, error) {
		var v models.Video
		err := row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Prompt, &v.Status, &v.CeleryTaskID, &v.SThreeURL)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan videos: %w", err)
	}
	return videos, nil
}

// DeleteForOwner removes the video and returns the row as it was.
func (r *Repository) DeleteForOwner(ctx context.Context, ownerID, id int64) (*models.Video, error) {
	return scanVideo(r.db.QueryRow(ctx,
		"DELETE FROM videos WHERE id = $1 AND owner_id = $2 RETURNING "+videoColumns, id, ownerID))
}

// MarkRetry parks the video under a row lock so it cannot race a webhook write.
func (r *Repository) MarkRetry(ctx context.Context, id int64) (*models.Video, error) {
	var v *models.Video
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		v, err = lockVideo(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "UPDATE videos SET status = $2 WHERE id = $1", id, models.VideoStatusRetry); err != nil {
			return fmt.Errorf("mark video retry: %w", err)
		}
		v.Status = models.VideoStatusRetry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// SaveDispatch records the outcome of a generation attempt that started from status
// from. When the row has moved on in the meantime, for example because the webhook
// already reported the result, nothing is written and ErrDispatchSuperseded is returned.
func (r *Repository) SaveDispatch(ctx context.Context, id int64, from, status, correlationID string) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		v, err := lockVideo(ctx, tx, id)
		if err != nil {
			return err
		}
		if v.Status != from {
			return fmt.Errorf("%w: video %d is %s", ErrDispatchSuperseded, id, v.Status)
		}
		if _, err := tx.Exec(ctx,
			"UPDATE videos SET status = $2, celery_task_id = $3 WHERE id = $1", id, status, correlationID); err != nil {
			return fmt.Errorf("save video dispatch: %w", err)
		}
		return nil
	})
}

func (r *Repository) CountByStatus(ctx context.Context, status string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM videos WHERE status = $1", status).Scan(&n); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return n, nil
}

func (r *Repository) ListIDsByStatus(ctx context.Context, status string) ([]int64, error) {
	rows, err := r.db.Query(ctx, "SELECT id FROM videos WHERE status = $1 ORDER BY id", status)
	if err != nil {
		return nil, fmt.Errorf("list videos by status: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan video ids: %w", err)
	}
	return ids, nil
}

// ApplyWebhook writes the final state reported by the generation API. The artifact
// URL is kept only for completed videos.
func (r *Repository) ApplyWebhook(ctx context.Context, id int64, status string, artifactURL string) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := lockVideo(ctx, tx, id); err != nil {
			return err
		}

		var url *string
		if status == models.VideoStatusCompleted && artifactURL != "" {
			url = &artifactURL
		}
		if _, err := tx.Exec(ctx,
			"UPDATE videos SET status = $2, s_three_url = $3 WHERE id = $1", id, status, url); err != nil {
			return fmt.Errorf("apply webhook: %w", err)
		}
		return nil
	})
}

func lockVideo(ctx context.Context, tx pgx.Tx, id int64) (*models.Video, error) {
	return scanVideo(tx.QueryRow(ctx, "SELECT "+videoColumns+" FROM videos WHERE id = $1 FOR UPDATE", id))
}

func scanVideo(row pgx.Row) (*models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Prompt, &v.Status, &v.CeleryTaskID, &v.SThreeURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return &v, nil
}
