package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hyeonwoo/ledgerflow/internal/domain"
	"github.com/hyeonwoo/ledgerflow/internal/logger"
	"github.com/hyeonwoo/ledgerflow/internal/queue"
	"github.com/hyeonwoo/ledgerflow/internal/repository"
	"github.com/hyeonwoo/ledgerflow/internal/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repository.Migrate(db))
	return db
}

func quietLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: "error", Output: io.Discard})
}

// newStoredCSV spools a CSV body into a local file store rooted in a
// temp dir and returns the store plus the stored file reference.
func newStoredCSV(t *testing.T, body string) (storage.FileStore, string) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	path, err := store.Save(context.Background(), "ledger.csv", strings.NewReader(body))
	require.NoError(t, err)
	return store, path
}

func groceryRules() domain.RuleTree {
	return domain.RuleTree{
		Companies: []domain.RuleCompany{
			{CompanyID: "C1", Categories: []domain.RuleCategory{
				{CategoryID: "CAT1", Keywords: []string{"grocery"}},
			}},
		},
	}
}

func createPendingJob(t *testing.T, jobs repository.JobRepository, path string, rules domain.RuleTree) *domain.ProcessingJob {
	t.Helper()
	job := &domain.ProcessingJob{
		JobID:       uuid.New().String(),
		Status:      domain.JobStatusPending,
		CSVFilePath: path,
		RulesData:   rules,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, jobs.Create(context.Background(), job))
	return job
}

// fakeQueue is an in-memory Queue for worker and intake tests.
type fakeQueue struct {
	mu       sync.Mutex
	messages []*queue.TaskMessage
	errs     []error
}

func (q *fakeQueue) Enqueue(_ context.Context, msg *queue.TaskMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, msg)
	return nil
}

// Dequeue pops a scripted error first, then a message, then reports an
// empty poll after a short wait, mimicking the blocking-pop timeout.
func (q *fakeQueue) Dequeue(ctx context.Context, _ time.Duration) (*queue.TaskMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.Lock()
	if len(q.errs) > 0 {
		err := q.errs[0]
		q.errs = q.errs[1:]
		q.mu.Unlock()
		return nil, err
	}
	if len(q.messages) > 0 {
		msg := q.messages[0]
		q.messages = q.messages[1:]
		q.mu.Unlock()
		return msg, nil
	}
	q.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Millisecond):
	}
	return nil, nil
}

func (q *fakeQueue) enqueued() []*queue.TaskMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*queue.TaskMessage, len(q.messages))
	copy(out, q.messages)
	return out
}
