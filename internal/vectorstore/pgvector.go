package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type PgVectorStore struct {
	db       *pgxpool.Pool
	embedder Embedder
}

func NewPgVectorStore(db *pgxpool.Pool, embedder Embedder) *PgVectorStore {
	return &PgVectorStore{db: db, embedder: embedder}
}

func (s *PgVectorStore) GetOrCreateCollection(ctx context.Context, name string) (Collection, error) {
	_, err := s.db.Exec(ctx,
		"INSERT INTO vector_collections (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", name)
	if err != nil {
		return nil, fmt.Errorf("create collection %s: %w", name, err)
	}
	return &pgCollection{store: s, name: name}, nil
}

// DeleteCollection drops the collection and, by cascade, all of its entries.
// Deleting a collection that does not exist is not an error.
func (s *PgVectorStore) DeleteCollection(ctx context.Context, name string) error {
	if _, err := s.db.Exec(ctx, "DELETE FROM vector_collections WHERE name = $1", name); err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	return nil
}

type pgCollection struct {
	store *PgVectorStore
	name  string
}

func (c *pgCollection) Name() string { return c.name }

func (c *pgCollection) Upsert(ctx context.Context, ids []string, metadatas []map[string]any, documents []string) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) {
		return ErrLengthMismatch
	}
	if len(ids) == 0 {
		return nil
	}

	vectors, err := c.store.embedder.Embed(ctx, documents)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}

	batch := &pgx.Batch{}
	for i, id := range ids {
		meta := metadatas[i]
		if meta == nil {
			meta = map[string]any{}
		}
		batch.Queue(
			`INSERT INTO vector_entries (collection, id, document, metadata, embedding)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (collection, id) DO UPDATE SET document = $3, metadata = $4, embedding = $5`,
			c.name, id, documents[i], meta, pgvector.NewVector(vectors[i]),
		)
	}

	tx, err := c.store.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert into %s: %w", c.name, err)
	}
	return tx.Commit(ctx)
}

func (c *pgCollection) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := c.store.db.Exec(ctx,
		"DELETE FROM vector_entries WHERE collection = $1 AND id = ANY($2)", c.name, ids)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", c.name, err)
	}
	return nil
}

func (c *pgCollection) Query(ctx context.Context, queryTexts []string, nResults int, where map[string]any) ([][]Match, error) {
	if nResults <= 0 {
		nResults = 10
	}
	if where == nil {
		where = map[string]any{}
	}

	vectors, err := c.store.embedder.Embed(ctx, queryTexts)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results := make([][]Match, 0, len(vectors))
	for _, vec := range vectors {
		rows, err := c.store.db.Query(ctx,
			`SELECT id, document, metadata, embedding <=> $1 AS distance
			 FROM vector_entries
			 WHERE collection = $2 AND metadata @> $3
			 ORDER BY embedding <=> $1
			 LIMIT $4`,
			pgvector.NewVector(vec), c.name, where, nResults,
		)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", c.name, err)
		}

		matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Match, error) {
			var m Match
			err := row.Scan(&m.ID, &m.Document, &m.Metadata, &m.Distance)
			return m, err
		})
		if err != nil {
			return nil, fmt.Errorf("scan matches: %w", err)
		}
		results = append(results, matches)
	}
	return results, nil
}

func (c *pgCollection) Count(ctx context.Context) (int, error) {
	var n int
	err := c.store.db.QueryRow(ctx,
		"SELECT count(*) FROM vector_entries WHERE collection = $1", c.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.name, err)
	}
	return n, nil
}
