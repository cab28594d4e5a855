package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collinsayidan/Collinalitics/internal/model"
)

func TestIndexRebuildAndMeta(t *testing.T) {
	index := NewIndex()

	meta, err := index.Meta(context.Background())
	require.NoError(t, err)
	require.Nil(t, meta)

	err = index.Rebuild(context.Background(), []model.Embedding{
		{DocumentID: "d1", Vector: []float32{1, 0}},
		{DocumentID: "d2", Vector: []float32{0, 1}},
	}, model.CorpusMeta{ModelName: "m1", Dimension: 2, RebuiltAt: 42})
	require.NoError(t, err)

	meta, err = index.Meta(context.Background())
	require.NoError(t, err)
	require.Equal(t, "m1", meta.ModelName)
	require.Equal(t, 2, meta.Embeddings)
	require.EqualValues(t, 42, meta.RebuiltAt)

	count, err := index.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// A new generation fully replaces the old one.
	err = index.Rebuild(context.Background(), nil, model.CorpusMeta{ModelName: "m2", RebuiltAt: 43})
	require.NoError(t, err)
	count, err = index.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestIndexNearestOrdering(t *testing.T) {
	index := NewIndex()
	err := index.Rebuild(context.Background(), []model.Embedding{
		{ID: 1, DocumentID: "d1", Vector: []float32{1, 0}},
		{ID: 2, DocumentID: "d2", Vector: []float32{0.7, 0.7}},
		{ID: 3, DocumentID: "d3", Vector: []float32{0, 1}},
	}, model.CorpusMeta{Dimension: 2})
	require.NoError(t, err)

	results, err := index.Nearest(context.Background(), []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.EqualValues(t, 1, results[0].Embedding.ID)
	require.InDelta(t, 1.0, results[0].Score, 1e-9)
	require.EqualValues(t, 2, results[1].Embedding.ID)
	require.Greater(t, results[0].Score, results[1].Score)
}

func TestIndexNearestTieBreaksByID(t *testing.T) {
	index := NewIndex()
	err := index.Rebuild(context.Background(), []model.Embedding{
		{ID: 7, DocumentID: "d1", Vector: []float32{2, 0}},
		{ID: 3, DocumentID: "d2", Vector: []float32{1, 0}},
	}, model.CorpusMeta{Dimension: 2})
	require.NoError(t, err)

	// Both vectors point the same way, so cosine scores tie.
	results, err := index.Nearest(context.Background(), []float32{1, 0}, 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, results[0].Embedding.ID)
	require.EqualValues(t, 7, results[1].Embedding.ID)
}

func TestIndexNearestClampsAndEmpty(t *testing.T) {
	index := NewIndex()

	results, err := index.Nearest(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Empty(t, results)

	err = index.Rebuild(context.Background(), []model.Embedding{
		{ID: 1, DocumentID: "d1", Vector: []float32{1, 0}},
	}, model.CorpusMeta{Dimension: 2})
	require.NoError(t, err)

	results, err = index.Nearest(context.Background(), []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = index.Nearest(context.Background(), []float32{1, 0}, 0)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestCosineSimilarityEdgeCases(t *testing.T) {
	require.Zero(t, cosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	require.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	require.InDelta(t, 1.0, cosineSimilarity([]float32{3, 4}, []float32{6, 8}), 1e-9)
	require.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
}
