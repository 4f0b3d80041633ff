// Package queue carries job references between the intake API and the
// worker processes over a shared Redis FIFO list.
package queue

import (
	"context"
	"errors"
	"time"
)

// TaskProcessTransactions is the task tag for batch classification jobs.
const TaskProcessTransactions = "process_transactions"

// DefaultQueueName is the Redis list shared by producers and workers.
const DefaultQueueName = "accounting_tasks"

// ErrQueueUnavailable signals a transient transport fault. The caller
// is expected to back off and retry; it is never surfaced as a job
// failure and never terminates the worker.
var ErrQueueUnavailable = errors.New("queue unavailable")

// TaskMessage is the wire record pushed by the intake API and popped by
// workers. Delivery is at-least-once: a message may reach more than one
// consumer in failure scenarios, and the job claim step is what makes
// that safe.
type TaskMessage struct {
	JobID string `json:"job_id"`
	Task  string `json:"task"`
}

// Queue is the transport contract consumed by the worker loop and the
// intake service. Implementations must make Dequeue return (nil, nil)
// on an empty poll so the caller can re-check its shutdown state.
type Queue interface {
	// Enqueue pushes a task onto the shared queue.
	Enqueue(ctx context.Context, msg *TaskMessage) error

	// Dequeue blocks up to timeout for the next task. Returns (nil, nil)
	// when the wait times out with nothing delivered, and an error
	// wrapping ErrQueueUnavailable on transport failure.
	Dequeue(ctx context.Context, timeout time.Duration) (*TaskMessage, error)
}
