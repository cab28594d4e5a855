package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/collinsayidan/Collinalitics/internal/service"
)

// RebuildJob refreshes corpus embeddings when documents changed since
// the last generation or the embedding model was switched.
type RebuildJob struct {
	corpus *service.CorpusService
}

func NewRebuildJob(corpus *service.CorpusService) *RebuildJob {
	return &RebuildJob{corpus: corpus}
}

func (j *RebuildJob) Name() string {
	return "corpus_auto_rebuild"
}

func (j *RebuildJob) Run(ctx context.Context) error {
	rebuilt, err := j.corpus.RebuildIfStale(ctx)
	if err != nil {
		return err
	}
	if !rebuilt {
		logutil.GetLogger(ctx).Debug("corpus up to date", zap.String("job", j.Name()))
	}
	return nil
}
