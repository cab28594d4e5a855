package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collinsayidan/Collinalitics/internal/model"
	"github.com/collinsayidan/Collinalitics/internal/pkg/timeutil"
	"github.com/collinsayidan/Collinalitics/internal/repo"
	"github.com/collinsayidan/Collinalitics/test/testutil"
)

func seedDocuments(t *testing.T, docs *repo.DocumentRepo, ids ...string) {
	t.Helper()
	now := timeutil.NowUnix()
	for _, id := range ids {
		require.NoError(t, docs.Create(context.Background(), &model.Document{
			ID: id, Title: "T " + id, Slug: "slug-" + id, Content: "c", Ctime: now,
		}))
	}
}

func TestEmbeddingRepoRebuildAndNearest(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	testutil.Reset(t, db, "knowledge_embeddings", "knowledge_documents", "corpus_meta")

	docs := repo.NewDocumentRepo(db)
	seedDocuments(t, docs, "d1", "d2", "d3")

	embeddings := repo.NewEmbeddingRepo(db)
	now := timeutil.NowUnix()
	err := embeddings.Rebuild(context.Background(), []model.Embedding{
		{DocumentID: "d1", ChunkText: "refunds", Position: 0, Vector: []float32{1, 0}, Ctime: now},
		{DocumentID: "d2", ChunkText: "shipping", Position: 0, Vector: []float32{0.7, 0.7}, Ctime: now},
		{DocumentID: "d3", ChunkText: "about", Position: 0, Vector: []float32{0, 1}, Ctime: now},
	}, model.CorpusMeta{ModelName: "embed-v1", Dimension: 2, RebuiltAt: now})
	require.NoError(t, err)

	meta, err := embeddings.Meta(context.Background())
	require.NoError(t, err)
	require.Equal(t, "embed-v1", meta.ModelName)
	require.Equal(t, 2, meta.Dimension)
	require.Equal(t, 3, meta.Embeddings)

	results, err := embeddings.Nearest(context.Background(), []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "d1", results[0].Embedding.DocumentID)
	require.InDelta(t, 1.0, results[0].Score, 1e-6)
	require.Equal(t, "d2", results[1].Embedding.DocumentID)
	require.Greater(t, results[0].Score, results[1].Score)

	// A new generation replaces the old one entirely.
	err = embeddings.Rebuild(context.Background(), []model.Embedding{
		{DocumentID: "d1", ChunkText: "only one", Position: 0, Vector: []float32{0, 1}, Ctime: now + 1},
	}, model.CorpusMeta{ModelName: "embed-v2", Dimension: 2, RebuiltAt: now + 1})
	require.NoError(t, err)

	count, err := embeddings.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
	meta, err = embeddings.Meta(context.Background())
	require.NoError(t, err)
	require.Equal(t, "embed-v2", meta.ModelName)
}

func TestEmbeddingRepoNearestTieBreaksByID(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	testutil.Reset(t, db, "knowledge_embeddings", "knowledge_documents", "corpus_meta")

	docs := repo.NewDocumentRepo(db)
	seedDocuments(t, docs, "d1", "d2")

	embeddings := repo.NewEmbeddingRepo(db)
	now := timeutil.NowUnix()
	// Parallel vectors produce identical cosine distances.
	err := embeddings.Rebuild(context.Background(), []model.Embedding{
		{DocumentID: "d1", ChunkText: "first", Position: 0, Vector: []float32{2, 0}, Ctime: now},
		{DocumentID: "d2", ChunkText: "second", Position: 0, Vector: []float32{1, 0}, Ctime: now},
	}, model.CorpusMeta{ModelName: "embed-v1", Dimension: 2, RebuiltAt: now})
	require.NoError(t, err)

	results, err := embeddings.Nearest(context.Background(), []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Less(t, results[0].Embedding.ID, results[1].Embedding.ID)
}

func TestEmbeddingRepoEmptyCorpus(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	testutil.Reset(t, db, "knowledge_embeddings", "knowledge_documents", "corpus_meta")

	embeddings := repo.NewEmbeddingRepo(db)

	results, err := embeddings.Nearest(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Empty(t, results)

	meta, err := embeddings.Meta(context.Background())
	require.NoError(t, err)
	require.Nil(t, meta)
}

func TestEmbeddingRepoCascadeOnDocumentDelete(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	testutil.Reset(t, db, "knowledge_embeddings", "knowledge_documents", "corpus_meta")

	docs := repo.NewDocumentRepo(db)
	seedDocuments(t, docs, "d1")

	embeddings := repo.NewEmbeddingRepo(db)
	now := timeutil.NowUnix()
	err := embeddings.Rebuild(context.Background(), []model.Embedding{
		{DocumentID: "d1", ChunkText: "chunk", Position: 0, Vector: []float32{1, 0}, Ctime: now},
	}, model.CorpusMeta{ModelName: "embed-v1", Dimension: 2, RebuiltAt: now})
	require.NoError(t, err)

	require.NoError(t, docs.Delete(context.Background(), "d1"))

	count, err := embeddings.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}
