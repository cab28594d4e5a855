package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/collinsayidan/Collinalitics/internal/ai"
	"github.com/collinsayidan/Collinalitics/internal/chunker"
	"github.com/collinsayidan/Collinalitics/internal/model"
	appErr "github.com/collinsayidan/Collinalitics/internal/pkg/errors"
	"github.com/collinsayidan/Collinalitics/internal/pkg/timeutil"
)

// embedBatchSize bounds how many chunks go into one billed embedding
// call during rebuild.
const embedBatchSize = 64

type CorpusService struct {
	docs     DocumentStore
	index    EmbeddingIndex
	embedder ai.IEmbedder
	splitter chunker.Chunker
}

func NewCorpusService(docs DocumentStore, index EmbeddingIndex, embedder ai.IEmbedder, splitter chunker.Chunker) *CorpusService {
	return &CorpusService{
		docs:     docs,
		index:    index,
		embedder: embedder,
		splitter: splitter,
	}
}

// CreateDocument publishes a new document. The slug is the natural key;
// a collision with an existing document fails with ErrConflict.
func (s *CorpusService) CreateDocument(ctx context.Context, title, slug, content, tags string) (*model.Document, error) {
	doc, err := s.buildDocument(title, slug, content, tags)
	if err != nil {
		return nil, err
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// UpsertDocument publishes a document, replacing any existing document
// with the same slug. The replaced document's embeddings become stale and
// stay out of retrieval only after the next rebuild, which is why callers
// ingesting in bulk trigger a rebuild afterwards.
func (s *CorpusService) UpsertDocument(ctx context.Context, title, slug, content, tags string) (*model.Document, error) {
	doc, err := s.buildDocument(title, slug, content, tags)
	if err != nil {
		return nil, err
	}
	id, err := s.docs.UpsertBySlug(ctx, doc)
	if err != nil {
		return nil, err
	}
	doc.ID = id
	return doc, nil
}

func (s *CorpusService) buildDocument(title, slug, content, tags string) (*model.Document, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, appErr.ErrInvalid
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = slugify(title)
	}
	if !validSlug(slug) {
		return nil, appErr.ErrInvalid
	}
	return &model.Document{
		ID:      newID(),
		Title:   title,
		Slug:    slug,
		Content: content,
		Tags:    strings.TrimSpace(tags),
		Ctime:   timeutil.NowUnix(),
	}, nil
}

func (s *CorpusService) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	return s.docs.GetByID(ctx, id)
}

func (s *CorpusService) ListDocuments(ctx context.Context, limit, offset int) ([]model.Document, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.docs.List(ctx, limit, offset)
}

func (s *CorpusService) DeleteDocument(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, id)
}

// RebuildEmbeddings re-embeds the whole corpus and atomically replaces
// the previous generation. On any failure the previous generation stays
// queryable untouched. Returns the number of embeddings written.
func (s *CorpusService) RebuildEmbeddings(ctx context.Context) (int, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("model", s.embedder.ModelName()))
	docs, err := s.docs.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	var items []model.Embedding
	var texts []string
	now := timeutil.NowUnix()
	for _, doc := range docs {
		// Title is embedded with the first chunk to improve recall on
		// short queries that only mention the topic.
		chunks, err := s.splitter.Chunk(fmt.Sprintf("%s\n%s", doc.Title, doc.Content))
		if err != nil {
			return 0, err
		}
		for _, ch := range chunks {
			items = append(items, model.Embedding{
				DocumentID: doc.ID,
				ChunkText:  ch.Text,
				Position:   ch.Position,
				Ctime:      now,
			})
			texts = append(texts, ch.Text)
		}
	}
	logger.Info("rebuilding corpus embeddings", zap.Int("documents", len(docs)), zap.Int("chunks", len(items)))

	dimension := 0
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts[start:end], ai.TaskTypeDocument)
		if err != nil {
			logger.Error("embedding batch failed, keeping previous generation", zap.Error(err))
			return 0, err
		}
		for i, vec := range vectors {
			if len(vec) == 0 {
				return 0, fmt.Errorf("%w: empty vector for chunk %d", appErr.ErrCorpusInconsistency, start+i)
			}
			if dimension == 0 {
				dimension = len(vec)
			}
			if len(vec) != dimension {
				return 0, fmt.Errorf("%w: vector dimension %d, expected %d", appErr.ErrCorpusInconsistency, len(vec), dimension)
			}
			items[start+i].Vector = vec
		}
	}

	meta := model.CorpusMeta{
		ModelName: s.embedder.ModelName(),
		Dimension: dimension,
		RebuiltAt: now,
	}
	if err := s.index.Rebuild(ctx, items, meta); err != nil {
		return 0, err
	}
	logger.Info("corpus rebuilt", zap.Int("embeddings", len(items)), zap.Int("dimension", dimension))
	return len(items), nil
}

// RebuildIfStale rebuilds when documents are newer than the current
// generation, when the embedding model changed, or when documents exist
// but no generation does. Reports whether a rebuild ran.
func (s *CorpusService) RebuildIfStale(ctx context.Context) (bool, error) {
	meta, err := s.index.Meta(ctx)
	if err != nil {
		return false, err
	}
	docCount, err := s.docs.Count(ctx)
	if err != nil {
		return false, err
	}
	latest, err := s.docs.LatestCtime(ctx)
	if err != nil {
		return false, err
	}
	stale := false
	switch {
	case meta == nil:
		stale = docCount > 0
	case meta.ModelName != s.embedder.ModelName():
		stale = true
	case latest > meta.RebuiltAt:
		stale = true
	}
	if !stale {
		return false, nil
	}
	_, err = s.RebuildEmbeddings(ctx)
	return err == nil, err
}

type CorpusStatus struct {
	Documents  int    `json:"documents"`
	Embeddings int    `json:"embeddings"`
	ModelName  string `json:"model_name"`
	Dimension  int    `json:"dimension"`
	RebuiltAt  int64  `json:"rebuilt_at"`
}

func (s *CorpusService) Status(ctx context.Context) (*CorpusStatus, error) {
	status := &CorpusStatus{}
	docCount, err := s.docs.Count(ctx)
	if err != nil {
		return nil, err
	}
	status.Documents = docCount
	meta, err := s.index.Meta(ctx)
	if err != nil {
		return nil, err
	}
	if meta != nil {
		status.Embeddings = meta.Embeddings
		status.ModelName = meta.ModelName
		status.Dimension = meta.Dimension
		status.RebuiltAt = meta.RebuiltAt
	}
	return status, nil
}
