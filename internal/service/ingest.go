package service

import (
	"context"
	"path"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/collinsayidan/Collinalitics/internal/docsource"
)

// IngestDocuments upserts raw files as corpus documents, keyed by a slug
// derived from the file path, then rebuilds embeddings once at the end.
// Returns how many documents were written.
func (s *CorpusService) IngestDocuments(ctx context.Context, raws []docsource.RawDocument) (int, error) {
	logger := logutil.GetLogger(ctx)
	written := 0
	for _, raw := range raws {
		content := strings.TrimSpace(raw.Content)
		if content == "" {
			continue
		}
		title := titleFromContent(content)
		if title == "" {
			title = titleFromPath(raw.Path)
		}
		slug := slugify(strings.TrimSuffix(raw.Path, path.Ext(raw.Path)))
		if _, err := s.UpsertDocument(ctx, title, slug, content, ""); err != nil {
			logger.Error("ingest document failed", zap.String("path", raw.Path), zap.Error(err))
			return written, err
		}
		written++
	}
	if written == 0 {
		return 0, nil
	}
	if _, err := s.RebuildEmbeddings(ctx); err != nil {
		return written, err
	}
	logger.Info("ingest complete", zap.Int("documents", written))
	return written, nil
}

// titleFromContent uses the first markdown heading line as the title.
func titleFromContent(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "# "))
		}
		return ""
	}
	return ""
}

func titleFromPath(filePath string) string {
	base := strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return strings.TrimSpace(base)
}
