package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hyeonwoo/ledgerflow/internal/classify"
	"github.com/hyeonwoo/ledgerflow/internal/domain"
	"github.com/hyeonwoo/ledgerflow/internal/ledger"
	"github.com/hyeonwoo/ledgerflow/internal/logger"
	"github.com/hyeonwoo/ledgerflow/internal/repository"
	"github.com/hyeonwoo/ledgerflow/internal/storage"
)

// DefaultCheckpointRows is how many rows are processed between durable
// progress checkpoints.
const DefaultCheckpointRows = 1000

// Processor runs the per-job pipeline: claim the job, stream the source
// file row by row through parse → classify → persist, checkpoint
// progress, and drive the job to a terminal state. Rows are processed
// strictly in source order, one at a time.
type Processor struct {
	jobs           repository.JobRepository
	txns           repository.TransactionRepository
	files          storage.FileStore
	logger         *logger.Logger
	checkpointRows int
}

// ProcessorConfig holds configuration for the processor.
type ProcessorConfig struct {
	CheckpointRows int
}

// NewProcessor creates a new Processor.
func NewProcessor(
	jobs repository.JobRepository,
	txns repository.TransactionRepository,
	files storage.FileStore,
	log *logger.Logger,
	cfg *ProcessorConfig,
) *Processor {
	checkpoint := DefaultCheckpointRows
	if cfg != nil && cfg.CheckpointRows > 0 {
		checkpoint = cfg.CheckpointRows
	}
	return &Processor{
		jobs:           jobs,
		txns:           txns,
		files:          files,
		logger:         log,
		checkpointRows: checkpoint,
	}
}

// ProcessJob claims and runs one job to a terminal state.
//
// A failed claim (job missing, already claimed, already terminal)
// returns repository.ErrJobNotClaimable and touches nothing. Any error
// after a successful claim — malformed row, persistence failure, panic
// — marks the job failed with that error as its message; failure is
// whole-job, no row is skipped or retried.
func (p *Processor) ProcessJob(ctx context.Context, jobID string) error {
	log := p.logger.WithField(logger.FieldJobID, jobID)

	job, err := p.jobs.Claim(ctx, jobID)
	if err != nil {
		return err
	}

	start := time.Now()
	processed, _, runErr := p.runGuarded(ctx, job)
	if runErr != nil {
		log.WithError(runErr).Error("Job failed")
		if failErr := p.jobs.Fail(ctx, jobID, runErr.Error()); failErr != nil {
			log.WithError(failErr).Error("Failed to record job failure")
		}
		return runErr
	}

	log.WithFields(logger.Fields{
		logger.FieldRows:       processed,
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info("Job completed")
	return nil
}

// runGuarded wraps the row pipeline so a panic inside it becomes a job
// failure instead of killing the worker process.
func (p *Processor) runGuarded(ctx context.Context, job *domain.ProcessingJob) (processed, total int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing job: %v", r)
		}
	}()
	return p.run(ctx, job)
}

func (p *Processor) run(ctx context.Context, job *domain.ProcessingJob) (int, int, error) {
	src, err := p.files.Open(ctx, job.CSVFilePath)
	if err != nil {
		return 0, 0, err
	}
	defer src.Close()

	file, err := ledger.Load(src)
	if err != nil {
		return 0, 0, err
	}

	// The loaded row count is authoritative for total_rows; it is set
	// once here and never changes afterward.
	total := file.RowCount()
	processed := 0

	for i := 0; i < total; i++ {
		txn, err := file.Parse(job.JobID, i)
		if err != nil {
			return processed, total, err
		}

		classify.Apply(txn, &job.RulesData)

		if err := p.txns.Save(ctx, txn); err != nil {
			return processed, total, fmt.Errorf("failed to persist row %d: %w", i, err)
		}
		processed++

		if processed%p.checkpointRows == 0 {
			if err := p.jobs.UpdateProgress(ctx, job.JobID, processed, total); err != nil {
				return processed, total, fmt.Errorf("failed to checkpoint progress: %w", err)
			}
		}
	}

	if err := p.jobs.Complete(ctx, job.JobID, processed, total); err != nil {
		return processed, total, fmt.Errorf("failed to complete job: %w", err)
	}
	return processed, total, nil
}
