package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"github.com/collinsayidan/Collinalitics/internal/model"
)

// EmbeddingRepo stores the embedded corpus in Postgres with pgvector.
// Similarity is cosine, larger is better: the <=> operator yields cosine
// distance, which is converted with 1 - distance. Ties are broken by
// ascending embedding id so results are reproducible run to run.
type EmbeddingRepo struct {
	db *sql.DB
}

func NewEmbeddingRepo(db *sql.DB) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

// Rebuild atomically replaces the whole embedding generation. Everything
// runs in one transaction, so a concurrent Nearest sees either the old
// set or the new one, never a mix, and a failure leaves the previous
// generation fully queryable.
func (r *EmbeddingRepo) Rebuild(ctx context.Context, items []model.Embedding, meta model.CorpusMeta) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM knowledge_embeddings"); err != nil {
		return err
	}
	const insert = `
		INSERT INTO knowledge_embeddings (document_id, chunk_text, chunk_index, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, item := range items {
		if _, err := tx.ExecContext(ctx, insert,
			item.DocumentID, item.ChunkText, item.Position,
			pgvector.NewVector(item.Vector), item.Ctime,
		); err != nil {
			return err
		}
	}
	const upsertMeta = `
		INSERT INTO corpus_meta (id, model_name, dimension, rebuilt_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			model_name = EXCLUDED.model_name,
			dimension = EXCLUDED.dimension,
			rebuilt_at = EXCLUDED.rebuilt_at
	`
	if _, err := tx.ExecContext(ctx, upsertMeta, meta.ModelName, meta.Dimension, meta.RebuiltAt); err != nil {
		return err
	}
	return tx.Commit()
}

// Nearest returns up to k embeddings ordered by descending cosine
// similarity to vector. An empty corpus yields an empty slice, not an
// error.
func (r *EmbeddingRepo) Nearest(ctx context.Context, vector []float32, k int) ([]model.ScoredEmbedding, error) {
	if k <= 0 {
		return nil, nil
	}
	const query = `
		SELECT id, document_id, chunk_text, chunk_index, ctime,
		       1 - (embedding <=> $1) AS score
		FROM knowledge_embeddings
		ORDER BY embedding <=> $1 ASC, id ASC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	results := make([]model.ScoredEmbedding, 0, k)
	for rows.Next() {
		var item model.ScoredEmbedding
		if err := rows.Scan(
			&item.Embedding.ID,
			&item.Embedding.DocumentID,
			&item.Embedding.ChunkText,
			&item.Embedding.Position,
			&item.Embedding.Ctime,
			&item.Score,
		); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

// Meta returns the recorded model/dimension of the current generation,
// or nil when no rebuild has run yet.
func (r *EmbeddingRepo) Meta(ctx context.Context) (*model.CorpusMeta, error) {
	const query = `SELECT model_name, dimension, rebuilt_at FROM corpus_meta WHERE id = 1`
	var meta model.CorpusMeta
	err := r.db.QueryRowContext(ctx, query).Scan(&meta.ModelName, &meta.Dimension, &meta.RebuiltAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	count, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}
	meta.Embeddings = count
	return &meta, nil
}

func (r *EmbeddingRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM knowledge_embeddings").Scan(&count)
	return count, err
}
