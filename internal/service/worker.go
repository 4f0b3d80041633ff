package service

import (
	"context"
	"errors"
	"time"

	"github.com/hyeonwoo/ledgerflow/internal/logger"
	"github.com/hyeonwoo/ledgerflow/internal/queue"
	"github.com/hyeonwoo/ledgerflow/internal/repository"
)

// JobRunner runs one claimed job to a terminal state.
type JobRunner interface {
	ProcessJob(ctx context.Context, jobID string) error
}

// Worker is the queue-consuming loop of one worker process: block for
// the next job reference, run it through the JobRunner, repeat. Any
// number of Workers may compete on the same queue; the job claim inside
// the runner is the only mutual exclusion between them.
type Worker struct {
	queue       queue.Queue
	runner      JobRunner
	jobs        repository.JobRepository
	notifier    *Notifier
	logger      *logger.Logger
	pollTimeout time.Duration
	backoff     time.Duration
}

// WorkerConfig holds configuration for the worker loop.
type WorkerConfig struct {
	PollTimeout  time.Duration
	QueueBackoff time.Duration
}

// NewWorker creates a new Worker.
func NewWorker(
	q queue.Queue,
	runner JobRunner,
	jobs repository.JobRepository,
	notifier *Notifier,
	log *logger.Logger,
	cfg *WorkerConfig,
) *Worker {
	pollTimeout := 5 * time.Second
	backoff := 5 * time.Second
	if cfg != nil {
		if cfg.PollTimeout > 0 {
			pollTimeout = cfg.PollTimeout
		}
		if cfg.QueueBackoff > 0 {
			backoff = cfg.QueueBackoff
		}
	}
	return &Worker{
		queue:       q,
		runner:      runner,
		jobs:        jobs,
		notifier:    notifier,
		logger:      log,
		pollTimeout: pollTimeout,
		backoff:     backoff,
	}
}

// Run drives the loop until ctx is canceled. Cancellation is checked
// between jobs (and interrupts the queue wait); an in-flight job always
// runs to completion or failure before the loop exits.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("Worker started, waiting for jobs")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Worker stopping")
			return
		default:
		}

		msg, err := w.queue.Dequeue(ctx, w.pollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, queue.ErrQueueUnavailable) {
				w.logger.WithError(err).Error("Queue unavailable, backing off")
			} else {
				w.logger.WithError(err).Error("Failed to dequeue task")
			}
			w.sleep(ctx, w.backoff)
			continue
		}
		if msg == nil {
			// Empty poll; loop to re-check shutdown.
			continue
		}

		w.handle(ctx, msg)
	}
}

// handle runs one delivered task. Errors are logged and recorded on the
// job by the runner; nothing propagates out of here, so a bad job can
// never kill the worker.
func (w *Worker) handle(ctx context.Context, msg *queue.TaskMessage) {
	log := w.logger.WithField(logger.FieldJobID, msg.JobID)

	if msg.Task != queue.TaskProcessTransactions {
		log.WithField("task", msg.Task).Warn("Dropping task of unknown type")
		return
	}

	log.Info("Job started")

	// The in-flight job is shielded from shutdown cancellation; the
	// stop signal only takes effect between jobs.
	jobCtx := context.WithoutCancel(ctx)

	err := w.runner.ProcessJob(jobCtx, msg.JobID)
	switch {
	case errors.Is(err, repository.ErrJobNotClaimable):
		// Duplicate delivery or an already-terminal job; drop the
		// reference without recording anything.
		log.Info("Job not claimable, dropping reference")
		return
	case err != nil:
		log.WithError(err).Error("Job failed")
	default:
		log.Info("Job finished")
	}

	w.notify(jobCtx, msg.JobID)
}

// notify reports the terminal job state to the configured webhook,
// best-effort.
func (w *Worker) notify(ctx context.Context, jobID string) {
	if w.notifier == nil || !w.notifier.Enabled() {
		return
	}
	job, err := w.jobs.GetByID(ctx, jobID)
	if err != nil {
		w.logger.WithField(logger.FieldJobID, jobID).WithError(err).Error("Failed to load job for notification")
		return
	}
	w.notifier.JobFinished(ctx, job)
}

// sleep waits for d or until ctx is canceled, whichever comes first.
func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
