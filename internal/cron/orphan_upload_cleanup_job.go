package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/javokhirdev/newsline-backend/pkg/db/models"
	"github.com/javokhirdev/newsline-backend/pkg/logger"
	"github.com/javokhirdev/newsline-backend/pkg/metrics"

	"github.com/google/uuid"
)

const defaultOrphanRetentionHours = 24

type orphanUploadRepo interface {
	ListUnusedOlderThan(ctx context.Context, cutoff time.Time) ([]models.UploadRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type uploadFileStore interface {
	Remove(storedPath string) error
}

// OrphanUploadCleanupJobParams configure the orphan upload reclaimer.
type OrphanUploadCleanupJobParams struct {
	Logger         *logger.Logger
	Repo           orphanUploadRepo
	Files          uploadFileStore
	Metrics        *metrics.CronJobMetrics
	RetentionHours int
}

// NewOrphanUploadCleanupJob builds the job that deletes upload records
// that stayed unused past the retention window, along with their files.
func NewOrphanUploadCleanupJob(params OrphanUploadCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("upload repository required")
	}
	if params.Files == nil {
		return nil, fmt.Errorf("file store required")
	}
	retention := params.RetentionHours
	if retention <= 0 {
		retention = defaultOrphanRetentionHours
	}
	return &orphanUploadCleanupJob{
		logg:           params.Logger,
		repo:           params.Repo,
		files:          params.Files,
		metrics:        params.Metrics,
		retentionHours: retention,
		now:            time.Now,
	}, nil
}

type orphanUploadCleanupJob struct {
	logg           *logger.Logger
	repo           orphanUploadRepo
	files          uploadFileStore
	metrics        *metrics.CronJobMetrics
	retentionHours int
	now            func() time.Time
}

func (j *orphanUploadCleanupJob) Name() string { return "orphan-upload-cleanup" }

func (j *orphanUploadCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retentionHours) * time.Hour)

	records, err := j.repo.ListUnusedOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query orphan uploads: %w", err)
	}

	var (
		reclaimed int
		failures  error
	)
	for _, record := range records {
		if err := j.reclaim(ctx, record); err != nil {
			logCtx := j.logg.WithFields(ctx, map[string]any{
				"upload_id": record.ID,
				"path":      record.Path,
			})
			j.logg.Error(logCtx, "failed to reclaim orphan upload", err)
			failures = multierr.Append(failures, err)
			continue
		}
		reclaimed++
	}

	j.metrics.AddReclaimed(j.Name(), reclaimed)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":          cutoff,
		"retention_hours": j.retentionHours,
		"candidates":      len(records),
		"reclaimed":       reclaimed,
	})
	j.logg.Info(logCtx, "orphan upload cleanup complete")

	if failures != nil {
		return fmt.Errorf("orphan upload cleanup: %w", failures)
	}
	return nil
}

// reclaim removes the stored file first, then the tracking record. The
// file delete is idempotent, so a crash between the two steps leaves a
// record that the next cycle finishes off.
func (j *orphanUploadCleanupJob) reclaim(ctx context.Context, record models.UploadRecord) error {
	if err := j.files.Remove(record.Path); err != nil {
		return fmt.Errorf("remove file %s: %w", record.Path, err)
	}
	if err := j.repo.Delete(ctx, record.ID); err != nil {
		return fmt.Errorf("delete record %s: %w", record.ID, err)
	}
	return nil
}
