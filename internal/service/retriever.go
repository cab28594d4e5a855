package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/collinsayidan/Collinalitics/internal/ai"
	"github.com/collinsayidan/Collinalitics/internal/model"
	appErr "github.com/collinsayidan/Collinalitics/internal/pkg/errors"
)

// candidateMultiplier oversamples the nearest-neighbor lookup so that
// per-document deduplication can still fill k slots when one document
// dominates the top of the ranking.
const candidateMultiplier = 4

type RetrieverConfig struct {
	TopK          int
	MinScore      float64
	MaxQueryChars int
}

// Retriever turns a query string into the top-k most relevant chunks,
// at most one per document.
type Retriever struct {
	embedder ai.IEmbedder
	index    EmbeddingIndex
	docs     DocumentStore
	cfg      RetrieverConfig
}

func NewRetriever(embedder ai.IEmbedder, index EmbeddingIndex, docs DocumentStore, cfg RetrieverConfig) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	return &Retriever{embedder: embedder, index: index, docs: docs, cfg: cfg}
}

func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]model.RetrievedChunk, error) {
	text := strings.TrimSpace(query)
	if text == "" {
		return nil, appErr.NewVectorizationError(false, fmt.Errorf("empty query"))
	}
	if r.cfg.MaxQueryChars > 0 && len(text) > r.cfg.MaxQueryChars {
		return nil, appErr.NewVectorizationError(false, fmt.Errorf("query exceeds %d chars", r.cfg.MaxQueryChars))
	}
	if k <= 0 {
		k = r.cfg.TopK
	}
	logger := logutil.GetLogger(ctx).With(zap.String("query", text), zap.Int("top_k", k))

	vector, err := r.embedder.Embed(ctx, text, ai.TaskTypeQuery)
	if err != nil {
		logger.Error("failed to embed query", zap.Error(err))
		return nil, err
	}
	meta, err := r.index.Meta(ctx)
	if err != nil {
		return nil, err
	}
	if meta != nil && meta.Dimension > 0 && meta.Dimension != len(vector) {
		return nil, fmt.Errorf("%w: query vector dimension %d, corpus dimension %d (model %s)",
			appErr.ErrCorpusInconsistency, len(vector), meta.Dimension, meta.ModelName)
	}

	candidates, err := r.index.Nearest(ctx, vector, k*candidateMultiplier)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// Candidates arrive best-first, so the first chunk seen per document
	// is that document's best chunk.
	seen := make(map[string]bool, len(candidates))
	picked := make([]model.ScoredEmbedding, 0, k)
	for _, cand := range candidates {
		if r.cfg.MinScore > 0 && cand.Score < r.cfg.MinScore {
			continue
		}
		if seen[cand.Embedding.DocumentID] {
			continue
		}
		seen[cand.Embedding.DocumentID] = true
		picked = append(picked, cand)
		if len(picked) >= k {
			break
		}
	}
	if len(picked) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(picked))
	for _, cand := range picked {
		ids = append(ids, cand.Embedding.DocumentID)
	}
	docs, err := r.docs.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	docByID := make(map[string]model.Document, len(docs))
	for _, doc := range docs {
		docByID[doc.ID] = doc
	}

	results := make([]model.RetrievedChunk, 0, len(picked))
	for _, cand := range picked {
		doc, ok := docByID[cand.Embedding.DocumentID]
		if !ok {
			// Embedding outlived its document; skip rather than serve an
			// orphaned chunk.
			continue
		}
		logger.Debug("retrieved chunk",
			zap.String("doc_id", doc.ID),
			zap.String("slug", doc.Slug),
			zap.Float64("score", cand.Score),
		)
		results = append(results, model.RetrievedChunk{
			Document:  doc,
			ChunkText: cand.Embedding.ChunkText,
			Score:     cand.Score,
		})
	}
	return results, nil
}
