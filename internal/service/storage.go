package service

import (
	"context"

	"github.com/collinsayidan/Collinalitics/internal/model"
)

// DocumentStore is where the corpus reads and writes documents. The
// Postgres repo is the production implementation.
type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	UpsertBySlug(ctx context.Context, doc *model.Document) (string, error)
	GetByID(ctx context.Context, id string) (*model.Document, error)
	GetBySlug(ctx context.Context, slug string) (*model.Document, error)
	List(ctx context.Context, limit, offset int) ([]model.Document, error)
	ListAll(ctx context.Context) ([]model.Document, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Document, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	LatestCtime(ctx context.Context) (int64, error)
}

// EmbeddingIndex holds one corpus generation and answers nearest-neighbor
// queries against it. Rebuild must swap generations atomically: a
// concurrent Nearest sees the old set or the new set, never a mix.
type EmbeddingIndex interface {
	Rebuild(ctx context.Context, items []model.Embedding, meta model.CorpusMeta) error
	Nearest(ctx context.Context, vector []float32, k int) ([]model.ScoredEmbedding, error)
	Meta(ctx context.Context) (*model.CorpusMeta, error)
	Count(ctx context.Context) (int, error)
}

// InteractionLog records answered questions, append-only.
type InteractionLog interface {
	Create(ctx context.Context, item *model.Interaction) error
	List(ctx context.Context, limit, offset int) ([]model.Interaction, error)
}
