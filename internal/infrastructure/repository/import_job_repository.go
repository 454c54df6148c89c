package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
	"github.com/mohammadpnp/parts-import/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

// ImportJobRepository is a Postgres-backed job queue. Claims take a lease
// that workers extend with heartbeats; a running job whose lease expired is
// claimable again while it has attempts left.
type ImportJobRepository struct {
	db *gorm.DB
}

func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

func (r *ImportJobRepository) Enqueue(ctx context.Context, job domain.ImportJob) error {
	options, err := json.Marshal(job.Options)
	if err != nil {
		return fmt.Errorf("encode job options: %w", err)
	}

	row := models.ImportJob{
		ID:          job.ID,
		FilePath:    job.FilePath,
		FileName:    job.FileName,
		FileSize:    job.FileSize,
		MimeType:    job.MimeType,
		Options:     string(options),
		SubmittedBy: job.SubmittedBy,
		Status:      string(domain.JobQueued),
		MaxAttempts: job.MaxAttempts,
		CreatedAt:   job.CreatedAt,
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create import job: %w", err)
	}
	return nil
}

const claimNextSQL = `
UPDATE import_jobs
SET status = 'running',
    attempts = attempts + 1,
    started_at = COALESCE(started_at, NOW()),
    heartbeat_at = NOW(),
    lease_expires_at = NOW() + make_interval(secs => ?),
    updated_at = NOW()
WHERE id = (
    SELECT id FROM import_jobs
    WHERE attempts < max_attempts
      AND (status = 'queued' OR (status = 'running' AND lease_expires_at < NOW()))
    ORDER BY created_at
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING *`

func (r *ImportJobRepository) ClaimNext(ctx context.Context, leaseDuration time.Duration) (*domain.ImportJob, error) {
	var rows []models.ImportJob
	if err := r.db.WithContext(ctx).Raw(claimNextSQL, leaseDuration.Seconds()).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("claim import job: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	job, err := toDomainJob(rows[0])
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *ImportJobRepository) Heartbeat(ctx context.Context, jobID string, leaseDuration time.Duration) error {
	res := r.db.WithContext(ctx).Exec(`
UPDATE import_jobs
SET heartbeat_at = NOW(), lease_expires_at = NOW() + make_interval(secs => ?), updated_at = NOW()
WHERE id = ? AND status = 'running'`, leaseDuration.Seconds(), jobID)
	if res.Error != nil {
		return fmt.Errorf("heartbeat import job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("heartbeat import job %s: %w", jobID, domain.ErrJobNotFound)
	}
	return nil
}

func (r *ImportJobRepository) Complete(ctx context.Context, jobID string) error {
	return r.finish(ctx, jobID, domain.JobCompleted, nil)
}

func (r *ImportJobRepository) Fail(ctx context.Context, jobID string, reason string) error {
	return r.finish(ctx, jobID, domain.JobFailed, &reason)
}

func (r *ImportJobRepository) Requeue(ctx context.Context, jobID string, reason string) error {
	res := r.db.WithContext(ctx).Exec(`
UPDATE import_jobs
SET status = 'queued', error_message = ?, heartbeat_at = NULL, lease_expires_at = NULL, updated_at = NOW()
WHERE id = ?`, reason, jobID)
	if res.Error != nil {
		return fmt.Errorf("requeue import job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("requeue import job %s: %w", jobID, domain.ErrJobNotFound)
	}
	return nil
}

// FailExhausted fails every running job whose lease expired on its last
// attempt and returns them so the caller can clean up.
func (r *ImportJobRepository) FailExhausted(ctx context.Context, reason string) ([]domain.ImportJob, error) {
	var rows []models.ImportJob
	err := r.db.WithContext(ctx).Raw(`
UPDATE import_jobs
SET status = 'failed', error_message = ?, finished_at = NOW(), lease_expires_at = NULL, updated_at = NOW()
WHERE status = 'running' AND lease_expires_at < NOW() AND attempts >= max_attempts
RETURNING *`, reason).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fail exhausted import jobs: %w", err)
	}

	jobs := make([]domain.ImportJob, 0, len(rows))
	for _, row := range rows {
		job, err := toDomainJob(row)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (r *ImportJobRepository) finish(ctx context.Context, jobID string, status domain.JobStatus, reason *string) error {
	res := r.db.WithContext(ctx).Exec(`
UPDATE import_jobs
SET status = ?, error_message = ?, finished_at = NOW(), lease_expires_at = NULL, updated_at = NOW()
WHERE id = ?`, string(status), reason, jobID)
	if res.Error != nil {
		return fmt.Errorf("mark import job %s: %w", status, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("mark import job %s %s: %w", jobID, status, domain.ErrJobNotFound)
	}
	return nil
}

func toDomainJob(row models.ImportJob) (domain.ImportJob, error) {
	opts := domain.DefaultProcessingOptions()
	if row.Options != "" {
		if err := json.Unmarshal([]byte(row.Options), &opts); err != nil {
			return domain.ImportJob{}, fmt.Errorf("decode options of import job %s: %w", row.ID, err)
		}
	}

	return domain.ImportJob{
		ID:          row.ID,
		FilePath:    row.FilePath,
		FileName:    row.FileName,
		FileSize:    row.FileSize,
		MimeType:    row.MimeType,
		Options:     opts,
		SubmittedBy: row.SubmittedBy,
		Status:      domain.JobStatus(row.Status),
		Attempts:    row.Attempts,
		MaxAttempts: row.MaxAttempts,
		CreatedAt:   row.CreatedAt,
	}, nil
}
