package job

import (
	"context"

	"github.com/merchantiq/docengine/internal/ingest"
)

// ReindexJob sweeps documents that have no chunks yet, picking up
// uploads whose on-demand indexing failed or never ran.
type ReindexJob struct {
	reindexer *ingest.Reindexer
	limit     int
}

func NewReindexJob(reindexer *ingest.Reindexer, limit int) *ReindexJob {
	return &ReindexJob{reindexer: reindexer, limit: limit}
}

func (j *ReindexJob) Name() string {
	return "document_reindex"
}

func (j *ReindexJob) Run(ctx context.Context) error {
	if j.reindexer == nil {
		return nil
	}
	limit := j.limit
	if limit <= 0 {
		limit = 50
	}
	_, err := j.reindexer.ReindexBatch(ctx, limit, "default")
	return err
}
