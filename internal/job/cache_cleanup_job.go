package job

import (
	"context"
	"time"

	"github.com/collinsayidan/Collinalitics/internal/repo"
)

// CacheCleanupJob drops embedding cache rows older than keepDays.
type CacheCleanupJob struct {
	cache    *repo.EmbeddingCacheRepo
	keepDays int
}

func NewCacheCleanupJob(cache *repo.EmbeddingCacheRepo, keepDays int) *CacheCleanupJob {
	return &CacheCleanupJob{cache: cache, keepDays: keepDays}
}

func (j *CacheCleanupJob) Name() string {
	return "embedding_cache_cleanup"
}

func (j *CacheCleanupJob) Run(ctx context.Context) error {
	if j.cache == nil {
		return nil
	}
	keepDays := j.keepDays
	if keepDays <= 0 {
		keepDays = 30
	}
	cutoff := time.Now().Add(-time.Duration(keepDays) * 24 * time.Hour).Unix()
	_, err := j.cache.DeleteBefore(ctx, cutoff)
	return err
}
