package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ferrostar/askbase/internal/service"
)

const reapBatchLimit = 100

// IngestReaperJob fails sources stuck in processing. A crash mid-ingestion
// leaves the source in processing with no worker attached; without the
// reaper it would look in-flight forever.
type IngestReaperJob struct {
	ingest *service.IngestService
	maxAge time.Duration
}

func NewIngestReaperJob(ingest *service.IngestService, maxAge time.Duration) *IngestReaperJob {
	return &IngestReaperJob{ingest: ingest, maxAge: maxAge}
}

func (j *IngestReaperJob) Name() string {
	return "ingest_reaper"
}

func (j *IngestReaperJob) Run(ctx context.Context) error {
	if j.ingest == nil {
		return nil
	}
	reaped, err := j.ingest.ReapStale(ctx, j.maxAge, reapBatchLimit)
	if err != nil {
		return err
	}
	if reaped > 0 {
		logutil.GetLogger(ctx).Info("stale sources reaped", zap.Int("count", reaped))
	}
	return nil
}
