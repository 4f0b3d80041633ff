package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hyeonwoo/ledgerflow/internal/queue"
	"github.com/hyeonwoo/ledgerflow/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records processed job IDs and signals when done.
type fakeRunner struct {
	mu     sync.Mutex
	calls  []string
	result map[string]error
	done   chan string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		result: make(map[string]error),
		done:   make(chan string, 16),
	}
}

func (r *fakeRunner) ProcessJob(_ context.Context, jobID string) error {
	r.mu.Lock()
	r.calls = append(r.calls, jobID)
	r.mu.Unlock()
	r.done <- jobID
	return r.result[jobID]
}

func (r *fakeRunner) processed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

func workerConfig() *WorkerConfig {
	return &WorkerConfig{PollTimeout: 5 * time.Millisecond, QueueBackoff: time.Millisecond}
}

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		assert.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for job %s", want)
	}
}

func TestWorkerProcessesDeliveredJobs(t *testing.T) {
	q := &fakeQueue{}
	runner := newFakeRunner()
	w := NewWorker(q, runner, nil, nil, quietLogger(), workerConfig())

	require.NoError(t, q.Enqueue(context.Background(), &queue.TaskMessage{JobID: "job-1", Task: queue.TaskProcessTransactions}))
	require.NoError(t, q.Enqueue(context.Background(), &queue.TaskMessage{JobID: "job-2", Task: queue.TaskProcessTransactions}))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(stopped)
	}()

	waitFor(t, runner.done, "job-1")
	waitFor(t, runner.done, "job-2")

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}

	assert.Equal(t, []string{"job-1", "job-2"}, runner.processed())
}

func TestWorkerSurvivesQueueOutageAndJobErrors(t *testing.T) {
	q := &fakeQueue{errs: []error{queue.ErrQueueUnavailable, errors.New("garbled frame")}}
	runner := newFakeRunner()
	runner.result["bad-job"] = errors.New("row 2: balance_after: missing value")
	runner.result["dup-job"] = repository.ErrJobNotClaimable

	w := NewWorker(q, runner, nil, nil, quietLogger(), workerConfig())

	require.NoError(t, q.Enqueue(context.Background(), &queue.TaskMessage{JobID: "bad-job", Task: queue.TaskProcessTransactions}))
	require.NoError(t, q.Enqueue(context.Background(), &queue.TaskMessage{JobID: "dup-job", Task: queue.TaskProcessTransactions}))
	require.NoError(t, q.Enqueue(context.Background(), &queue.TaskMessage{JobID: "good-job", Task: queue.TaskProcessTransactions}))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(stopped)
	}()

	// Both transport faults and failing jobs are absorbed; the loop
	// keeps consuming.
	waitFor(t, runner.done, "bad-job")
	waitFor(t, runner.done, "dup-job")
	waitFor(t, runner.done, "good-job")

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}

func TestWorkerDropsUnknownTaskTypes(t *testing.T) {
	q := &fakeQueue{}
	runner := newFakeRunner()
	w := NewWorker(q, runner, nil, nil, quietLogger(), workerConfig())

	require.NoError(t, q.Enqueue(context.Background(), &queue.TaskMessage{JobID: "other", Task: "reindex_everything"}))
	require.NoError(t, q.Enqueue(context.Background(), &queue.TaskMessage{JobID: "mine", Task: queue.TaskProcessTransactions}))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(stopped)
	}()

	waitFor(t, runner.done, "mine")
	cancel()
	<-stopped

	assert.Equal(t, []string{"mine"}, runner.processed())
}
