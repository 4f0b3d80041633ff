package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyeonwoo/ledgerflow/internal/domain"
	"github.com/hyeonwoo/ledgerflow/internal/logger"
	"github.com/hyeonwoo/ledgerflow/internal/queue"
	"github.com/hyeonwoo/ledgerflow/internal/repository"
	"github.com/hyeonwoo/ledgerflow/internal/storage"
)

// IntakeService accepts batch classification requests: it spools the
// uploaded source file, validates the rule set, records a pending job,
// and publishes the job reference for the workers.
type IntakeService struct {
	jobs   repository.JobRepository
	txns   repository.TransactionRepository
	queue  queue.Queue
	files  storage.FileStore
	logger *logger.Logger
}

// NewIntakeService creates a new IntakeService.
func NewIntakeService(
	jobs repository.JobRepository,
	txns repository.TransactionRepository,
	q queue.Queue,
	files storage.FileStore,
	log *logger.Logger,
) *IntakeService {
	return &IntakeService{
		jobs:   jobs,
		txns:   txns,
		queue:  q,
		files:  files,
		logger: log,
	}
}

// Submit registers one batch classification request and enqueues it.
// The job row is written before the queue push: a push failure leaves a
// pending job that can be re-enqueued, never a queued reference without
// a job.
func (s *IntakeService) Submit(ctx context.Context, csvName string, csvFile io.Reader, rulesJSON []byte) (*domain.ProcessingJob, error) {
	tree, err := domain.ParseRuleTree(rulesJSON)
	if err != nil {
		return nil, err
	}

	storedName := fmt.Sprintf("%s-%s.csv", baseName(csvName), uuid.New().String())
	path, err := s.files.Save(ctx, storedName, csvFile)
	if err != nil {
		return nil, fmt.Errorf("failed to store source file: %w", err)
	}

	job := &domain.ProcessingJob{
		JobID:       uuid.New().String(),
		Status:      domain.JobStatusPending,
		CSVFilePath: path,
		RulesData:   *tree,
		CreatedAt:   time.Now(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	msg := &queue.TaskMessage{JobID: job.JobID, Task: queue.TaskProcessTransactions}
	if err := s.queue.Enqueue(ctx, msg); err != nil {
		s.logger.WithField(logger.FieldJobID, job.JobID).WithError(err).Error("Failed to enqueue job")
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	s.logger.WithField(logger.FieldJobID, job.JobID).Info("Job submitted")
	return job, nil
}

// GetJob returns the durable job record.
func (s *IntakeService) GetJob(ctx context.Context, jobID string) (*domain.ProcessingJob, error) {
	return s.jobs.GetByID(ctx, jobID)
}

// CompanyRecords returns the classified transactions of one company.
func (s *IntakeService) CompanyRecords(ctx context.Context, companyID string) ([]repository.CompanyRecord, error) {
	return s.txns.FindCompanyRecords(ctx, companyID)
}

// baseName strips directory components and the file extension.
func baseName(name string) string {
	base := filepath.Base(name)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		base = "upload"
	}
	return base
}
