package vectorstore

import (
	"context"
	"errors"
)

var ErrLengthMismatch = errors.New("ids, metadatas and documents must have the same length")

// Embedder turns documents into vectors before they are stored or queried.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Store owns named collections. Each owner gets its own collection, keyed by
// idrange.Namespace.
type Store interface {
	GetOrCreateCollection(ctx context.Context, name string) (Collection, error)
	DeleteCollection(ctx context.Context, name string) error
}

type Collection interface {
	Name() string
	// Upsert writes documents at the given ids, replacing any entry already there.
	Upsert(ctx context.Context, ids []string, metadatas []map[string]any, documents []string) error
	Delete(ctx context.Context, ids []string) error
	// Query returns up to nResults nearest entries for every query text. where, if
	// non-empty, restricts matches to entries whose metadata contains it.
	Query(ctx context.Context, queryTexts []string, nResults int, where map[string]any) ([][]Match, error)
	Count(ctx context.Context) (int, error)
}

type Match struct {
	ID       string         `json:"id"`
	Document string         `json:"document"`
	Metadata map[string]any `json:"metadata"`
	Distance float64        `json:"distance"`
}
