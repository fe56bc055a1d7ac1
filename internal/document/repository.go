package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/database"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/idrange"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
)

var ErrNotFound = errors.New("document not found")

const documentColumns = "id, owner_id, name, storage_path, status, created_at"

// Tx is the slice of the repository available while an ingestion holds its
// transaction open.
type Tx interface {
	SetStatus(ctx context.Context, documentID int64, status string) error
	CompleteRange(ctx context.Context, doc *models.Document, endID int64) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a document and its open embedding range in one transaction. The
// owner's watermark row is locked first so concurrent uploads by the same owner
// allocate one after the other.
func (r *Repository) Create(ctx context.Context, ownerID int64, name, storagePath string) (*models.Document, *models.DocumentEmbeddingRange, error) {
	var doc models.Document
	var rng models.DocumentEmbeddingRange

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			"INSERT INTO vector_id_watermarks (owner_id) VALUES ($1) ON CONFLICT (owner_id) DO NOTHING", ownerID); err != nil {
			return fmt.Errorf("ensure watermark: %w", err)
		}
		if _, err := tx.Exec(ctx,
			"SELECT last_id FROM vector_id_watermarks WHERE owner_id = $1 FOR UPDATE", ownerID); err != nil {
			return fmt.Errorf("lock watermark: %w", err)
		}

		start, err := idrange.AllocateNextStart(ctx, rangeLookup{db: tx}, ownerID)
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO documents (owner_id, name, storage_path, status)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+documentColumns,
			ownerID, name, storagePath, models.DocStatusUploaded,
		).Scan(&doc.ID, &doc.OwnerID, &doc.Name, &doc.StoragePath, &doc.Status, &doc.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert document: %w", err)
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO document_embedding_ranges (document_id, start_id)
			 VALUES ($1, $2)
			 RETURNING id, document_id, start_id, end_id`,
			doc.ID, start,
		).Scan(&rng.ID, &rng.DocumentID, &rng.StartID, &rng.EndID)
		if err != nil {
			return fmt.Errorf("insert embedding range: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &doc, &rng, nil
}

// GetWithRange loads a document by id along with its embedding range. The range is
// nil when the document has none.
func (r *Repository) GetWithRange(ctx context.Context, id int64) (*models.Document, *models.DocumentEmbeddingRange, error) {
	doc, err := scanDocument(r.db.QueryRow(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = $1", id))
	if err != nil {
		return nil, nil, err
	}

	var rng models.DocumentEmbeddingRange
	err = r.db.QueryRow(ctx,
		"SELECT id, document_id, start_id, end_id FROM document_embedding_ranges WHERE document_id = $1", id,
	).Scan(&rng.ID, &rng.DocumentID, &rng.StartID, &rng.EndID)
	if errors.Is(err, pgx.ErrNoRows) {
		return doc, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get embedding range: %w", err)
	}
	return doc, &rng, nil
}

func (r *Repository) GetForOwner(ctx context.Context, ownerID, id int64) (*models.Document, error) {
	return scanDocument(r.db.QueryRow(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = $1 AND owner_id = $2", id, ownerID))
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]models.Document, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+documentColumns+` FROM documents WHERE owner_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Document, error) {
		var d models.Document
		err := row.Scan(&d.ID, &d.OwnerID, &d.Name, &d.StoragePath, &d.Status, &d.CreatedAt)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	return docs, nil
}

func (r *Repository) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM documents WHERE owner_id = $1", ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// InTx runs fn with a transaction scoped to one ingestion.
func (r *Repository) InTx(ctx context.Context, fn func(Tx) error) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&txRepository{tx: tx})
	})
}

// MarkFailed sets status=error and removes the embedding range so a later upload
// does not see a bogus committed range. lastAttemptedID raises the owner's
// watermark past any id that may have reached the vector store.
func (r *Repository) MarkFailed(ctx context.Context, doc *models.Document, lastAttemptedID int64) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := setStatus(ctx, tx, doc.ID, models.DocStatusError); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "DELETE FROM document_embedding_ranges WHERE document_id = $1", doc.ID); err != nil {
			return fmt.Errorf("delete embedding range: %w", err)
		}
		return raiseWatermark(ctx, tx, doc.OwnerID, lastAttemptedID)
	})
}

// Delete removes the document. Its range goes with it by cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) SetStatus(ctx context.Context, documentID int64, status string) error {
	return setStatus(ctx, t.tx, documentID, status)
}

func (t *txRepository) CompleteRange(ctx context.Context, doc *models.Document, endID int64) error {
	tag, err := t.tx.Exec(ctx,
		"UPDATE document_embedding_ranges SET end_id = $2 WHERE document_id = $1", doc.ID, endID)
	if err != nil {
		return fmt.Errorf("set range end: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return raiseWatermark(ctx, t.tx, doc.OwnerID, endID)
}

func setStatus(ctx context.Context, db database.DBTX, id int64, status string) error {
	tag, err := db.Exec(ctx, "UPDATE documents SET status = $2 WHERE id = $1", id, status)
	if err != nil {
		return fmt.Errorf("set document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func raiseWatermark(ctx context.Context, db database.DBTX, ownerID, lastID int64) error {
	_, err := db.Exec(ctx,
		`INSERT INTO vector_id_watermarks (owner_id, last_id) VALUES ($1, $2)
		 ON CONFLICT (owner_id) DO UPDATE SET last_id = GREATEST(vector_id_watermarks.last_id, EXCLUDED.last_id)`,
		ownerID, lastID)
	if err != nil {
		return fmt.Errorf("raise watermark: %w", err)
	}
	return nil
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.OwnerID, &d.Name, &d.StoragePath, &d.Status, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &d, nil
}

// rangeLookup answers idrange allocation queries against a transaction.
type rangeLookup struct {
	db database.DBTX
}

func (l rangeLookup) LatestRange(ctx context.Context, ownerID int64) (*models.DocumentEmbeddingRange, error) {
	var rng models.DocumentEmbeddingRange
	err := l.db.QueryRow(ctx,
		`SELECT r.id, r.document_id, r.start_id, r.end_id
		 FROM document_embedding_ranges r
		 JOIN documents d ON d.id = r.document_id
		 WHERE d.owner_id = $1
		 ORDER BY d.created_at DESC, d.id DESC
		 LIMIT 1`,
		ownerID,
	).Scan(&rng.ID, &rng.DocumentID, &rng.StartID, &rng.EndID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rng, nil
}

func (l rangeLookup) Watermark(ctx context.Context, ownerID int64) (int64, error) {
	var last int64
	err := l.db.QueryRow(ctx, "SELECT last_id FROM vector_id_watermarks WHERE owner_id = $1", ownerID).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return last, err
}
