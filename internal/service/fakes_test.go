package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/collinsayidan/Collinalitics/internal/docsource"
	"github.com/collinsayidan/Collinalitics/internal/model"
	appErr "github.com/collinsayidan/Collinalitics/internal/pkg/errors"
)

type fakeEmbedder struct {
	vectors     map[string][]float32
	fallbackVec []float32
	err         error
	model       string
	calls       int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return f.fallbackVec, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if vec, ok := f.vectors[text]; ok {
			out = append(out, vec)
			continue
		}
		out = append(out, f.fallbackVec)
	}
	return out, nil
}

func (f *fakeEmbedder) ModelName() string {
	if f.model == "" {
		return "fake-embed"
	}
	return f.model
}

type fakeGenerator struct {
	reply      string
	err        error
	lastPrompt string
	calls      int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeDocStore struct {
	mu   sync.Mutex
	docs []model.Document
}

func (f *fakeDocStore) add(docs ...model.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, docs...)
}

func (f *fakeDocStore) Create(ctx context.Context, doc *model.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.docs {
		if existing.Slug == doc.Slug {
			return appErr.ErrConflict
		}
	}
	f.docs = append(f.docs, *doc)
	return nil
}

func (f *fakeDocStore) UpsertBySlug(ctx context.Context, doc *model.Document) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.docs {
		if existing.Slug == doc.Slug {
			id := existing.ID
			updated := *doc
			updated.ID = id
			f.docs[i] = updated
			return id, nil
		}
	}
	f.docs = append(f.docs, *doc)
	return doc.ID, nil
}

func (f *fakeDocStore) GetByID(ctx context.Context, id string) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range f.docs {
		if doc.ID == id {
			found := doc
			return &found, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (f *fakeDocStore) GetBySlug(ctx context.Context, slug string) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range f.docs {
		if doc.Slug == slug {
			found := doc
			return &found, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (f *fakeDocStore) List(ctx context.Context, limit, offset int) ([]model.Document, error) {
	all, _ := f.ListAll(ctx)
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeDocStore) ListAll(ctx context.Context) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Document, len(f.docs))
	copy(out, f.docs)
	return out, nil
}

func (f *fakeDocStore) ListByIDs(ctx context.Context, ids []string) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []model.Document
	for _, doc := range f.docs {
		if wanted[doc.ID] {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *fakeDocStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, doc := range f.docs {
		if doc.ID == id {
			f.docs = append(f.docs[:i], f.docs[i+1:]...)
			return nil
		}
	}
	return appErr.ErrNotFound
}

func (f *fakeDocStore) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs), nil
}

func (f *fakeDocStore) LatestCtime(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest int64
	for _, doc := range f.docs {
		if doc.Ctime > latest {
			latest = doc.Ctime
		}
	}
	return latest, nil
}

type fakeInteractionLog struct {
	mu        sync.Mutex
	items     []model.Interaction
	createErr error
}

func (f *fakeInteractionLog) Create(ctx context.Context, item *model.Interaction) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, *item)
	return nil
}

func (f *fakeInteractionLog) List(ctx context.Context, limit, offset int) ([]model.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Interaction, len(f.items))
	copy(out, f.items)
	return out, nil
}

func ingestFixture() []docsource.RawDocument {
	return []docsource.RawDocument{
		{Path: "guides/refund-policy.md", Content: "# Refund Policy\n\nRefunds are accepted within 30 days."},
		{Path: "notes/plain_file.txt", Content: "no heading here, just text"},
		{Path: "empty.md", Content: "   "},
	}
}

func testDoc(n int) model.Document {
	return model.Document{
		ID:      fmt.Sprintf("doc-%d", n),
		Title:   fmt.Sprintf("Document %d", n),
		Slug:    fmt.Sprintf("document-%d", n),
		Content: fmt.Sprintf("content of document %d", n),
		Ctime:   int64(1000 + n),
	}
}
