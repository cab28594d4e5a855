package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/collinsayidan/Collinalitics/internal/model"
)

// Index is an in-process corpus index using brute-force cosine
// similarity. It satisfies the same contract as the Postgres-backed
// repo: rebuild swaps the whole generation atomically, nearest returns
// up to k results ordered by descending score with ties broken by
// ascending embedding id, and an empty corpus yields an empty result.
type Index struct {
	mu    sync.RWMutex
	items []model.Embedding
	meta  *model.CorpusMeta
}

func NewIndex() *Index {
	return &Index{}
}

func (s *Index) Rebuild(ctx context.Context, items []model.Embedding, meta model.CorpusMeta) error {
	next := make([]model.Embedding, len(items))
	copy(next, items)
	for i := range next {
		if next[i].ID == 0 {
			next[i].ID = int64(i + 1)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = next
	metaCopy := meta
	s.meta = &metaCopy
	return nil
}

func (s *Index) Nearest(ctx context.Context, vector []float32, k int) ([]model.ScoredEmbedding, error) {
	if k <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	scored := make([]model.ScoredEmbedding, 0, len(s.items))
	for _, item := range s.items {
		scored = append(scored, model.ScoredEmbedding{
			Embedding: item,
			Score:     cosineSimilarity(vector, item.Vector),
		})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Embedding.ID < scored[j].Embedding.ID
	})
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

func (s *Index) Meta(ctx context.Context) (*model.CorpusMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.meta == nil {
		return nil, nil
	}
	metaCopy := *s.meta
	metaCopy.Embeddings = len(s.items)
	return &metaCopy, nil
}

func (s *Index) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
