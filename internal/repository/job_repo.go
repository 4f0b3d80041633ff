package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hyeonwoo/ledgerflow/internal/domain"
	"gorm.io/gorm"
)

var (
	// ErrJobNotClaimable is returned when a claim finds the job absent,
	// already claimed, or already terminal. The caller must drop the
	// queue reference and process nothing.
	ErrJobNotClaimable = errors.New("job is not claimable")

	// ErrJobNotProcessing is returned when a progress or terminal update
	// targets a job that is not in the processing state. Terminal states
	// are immutable.
	ErrJobNotProcessing = errors.New("job is not processing")
)

// JobRepository owns every write to the processing_jobs table. Each
// lifecycle transition is a single conditional statement so that a job
// is never observable in an inconsistent status/progress pair, and so
// that duplicate queue delivery is safe: only the first claimant's
// conditional update affects a row.
type JobRepository interface {
	Create(ctx context.Context, job *domain.ProcessingJob) error
	GetByID(ctx context.Context, jobID string) (*domain.ProcessingJob, error)

	// Claim atomically moves a pending job to processing and returns the
	// stored job (file path and rule tree included). Returns
	// ErrJobNotClaimable if the job is missing or not pending.
	Claim(ctx context.Context, jobID string) (*domain.ProcessingJob, error)

	// UpdateProgress checkpoints the progress counters of a processing job.
	UpdateProgress(ctx context.Context, jobID string, processedRows, totalRows int) error

	// Complete moves a processing job to completed with its final counters.
	Complete(ctx context.Context, jobID string, processedRows, totalRows int) error

	// Fail moves a processing job to failed and records the error message.
	Fail(ctx context.Context, jobID string, errMsg string) error
}

// GormJobRepository is the GORM-backed JobRepository.
type GormJobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new GormJobRepository.
func NewJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// Create inserts a new pending job record.
func (r *GormJobRepository) Create(ctx context.Context, job *domain.ProcessingJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// GetByID retrieves a job by its ID.
func (r *GormJobRepository) GetByID(ctx context.Context, jobID string) (*domain.ProcessingJob, error) {
	var job domain.ProcessingJob
	if err := r.db.WithContext(ctx).First(&job, "job_id = ?", jobID).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// Claim performs the pending→processing transition as one conditional
// UPDATE. The status guard in the WHERE clause is the sole concurrency
// control across worker instances: with at-least-once queue delivery,
// every claimant after the first sees zero rows affected.
func (r *GormJobRepository) Claim(ctx context.Context, jobID string) (*domain.ProcessingJob, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&domain.ProcessingJob{}).
		Where("job_id = ? AND status = ?", jobID, domain.JobStatusPending).
		Updates(map[string]interface{}{
			"status":     domain.JobStatusProcessing,
			"started_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrJobNotClaimable
	}

	return r.GetByID(ctx, jobID)
}

// UpdateProgress persists the progress counters of a running job.
// Advisory only: a crash between checkpoints loses at most one batch of
// reported progress, never persisted transactions.
func (r *GormJobRepository) UpdateProgress(ctx context.Context, jobID string, processedRows, totalRows int) error {
	res := r.db.WithContext(ctx).
		Model(&domain.ProcessingJob{}).
		Where("job_id = ? AND status = ?", jobID, domain.JobStatusProcessing).
		Updates(map[string]interface{}{
			"processed_rows": processedRows,
			"total_rows":     totalRows,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrJobNotProcessing
	}
	return nil
}

// Complete performs the processing→completed transition, persisting the
// final counters and completion timestamp in the same statement.
func (r *GormJobRepository) Complete(ctx context.Context, jobID string, processedRows, totalRows int) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&domain.ProcessingJob{}).
		Where("job_id = ? AND status = ?", jobID, domain.JobStatusProcessing).
		Updates(map[string]interface{}{
			"status":         domain.JobStatusCompleted,
			"processed_rows": processedRows,
			"total_rows":     totalRows,
			"completed_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrJobNotProcessing
	}
	return nil
}

// Fail performs the processing→failed transition, recording the first
// fatal error as the job's error message.
func (r *GormJobRepository) Fail(ctx context.Context, jobID string, errMsg string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&domain.ProcessingJob{}).
		Where("job_id = ? AND status = ?", jobID, domain.JobStatusProcessing).
		Updates(map[string]interface{}{
			"status":        domain.JobStatusFailed,
			"error_message": errMsg,
			"completed_at":  now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrJobNotProcessing
	}
	return nil
}
