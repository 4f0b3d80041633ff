package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hyeonwoo/ledgerflow/internal/api/middleware"
	"github.com/hyeonwoo/ledgerflow/internal/domain"
	"github.com/hyeonwoo/ledgerflow/internal/logger"
	"github.com/hyeonwoo/ledgerflow/internal/queue"
	"github.com/hyeonwoo/ledgerflow/internal/repository"
	"github.com/hyeonwoo/ledgerflow/internal/service"
	"github.com/hyeonwoo/ledgerflow/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	sampleCSV = "transaction_date,description,amount_in,amount_out,balance_after,transaction_location\n" +
		"2024-01-01,Grocery Store,0,50,950,\n"
	sampleRules = `{"companies":[{"company_id":"C1","categories":[{"category_id":"CAT1","keywords":["grocery"]}]}]}`
)

// memQueue collects enqueued messages for inspection.
type memQueue struct {
	messages []*queue.TaskMessage
}

func (q *memQueue) Enqueue(_ context.Context, msg *queue.TaskMessage) error {
	q.messages = append(q.messages, msg)
	return nil
}

func (q *memQueue) Dequeue(context.Context, time.Duration) (*queue.TaskMessage, error) {
	return nil, nil
}

type testEnv struct {
	router *gin.Engine
	queue  *memQueue
	jobs   repository.JobRepository
	db     *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
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

	jobs := repository.NewJobRepository(db)
	txns := repository.NewTransactionRepository(db)
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	q := &memQueue{}

	log := logger.New(&logger.Config{Level: "error", Output: io.Discard})
	intake := service.NewIntakeService(jobs, txns, q, store, log)
	router := SetupRouter(intake, log, "test", middleware.CORSConfig{AllowAllOrigins: true})

	return &testEnv{router: router, queue: q, jobs: jobs, db: db}
}

func multipartBody(t *testing.T, fields map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range fields {
		part, err := w.CreateFormFile(name, name+".dat")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestProcessEndpoint(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, map[string][]byte{
		"transactions": []byte(sampleCSV),
		"rules":        []byte(sampleRules),
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounting/process", body)
	req.Header.Set("Content-Type", contentType)
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var job domain.ProcessingJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, domain.JobStatusPending, job.Status)
	_, err := uuid.Parse(job.JobID)
	assert.NoError(t, err)

	require.Len(t, env.queue.messages, 1)
	assert.Equal(t, job.JobID, env.queue.messages[0].JobID)
	assert.Equal(t, queue.TaskProcessTransactions, env.queue.messages[0].Task)
}

func TestProcessEndpointValidation(t *testing.T) {
	env := newTestEnv(t)

	testCases := []struct {
		name   string
		fields map[string][]byte
	}{
		{"missing transactions", map[string][]byte{"rules": []byte(sampleRules)}},
		{"missing rules", map[string][]byte{"transactions": []byte(sampleCSV)}},
		{"invalid rules json", map[string][]byte{
			"transactions": []byte(sampleCSV),
			"rules":        []byte("not json"),
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tc.fields)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/accounting/process", body)
			req.Header.Set("Content-Type", contentType)
			env.router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, env.queue.messages)
}

func TestGetJobEndpoint(t *testing.T) {
	env := newTestEnv(t)

	job := &domain.ProcessingJob{
		JobID:     uuid.New().String(),
		Status:    domain.JobStatusCompleted,
		CreatedAt: time.Now(),
	}
	require.NoError(t, env.jobs.Create(context.Background(), job))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounting/jobs/"+job.JobID, nil)
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.ProcessingJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, job.JobID, got.JobID)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
}

func TestGetJobEndpointBadID(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounting/jobs/not-a-uuid", nil)
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetJobEndpointNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounting/jobs/"+uuid.New().String(), nil)
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRecordsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.db.Create(&domain.Company{CompanyID: "C1", CompanyName: "Acme Ltd"}).Error)
	require.NoError(t, env.db.Create(&domain.Category{CategoryID: "CAT1", CompanyID: "C1", CategoryName: "Groceries"}).Error)

	companyID := "C1"
	categoryID := "CAT1"
	require.NoError(t, env.db.Create(&domain.Transaction{
		JobID:           uuid.New().String(),
		RowOrdinal:      0,
		TransactionDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Description:     "Grocery Store",
		CompanyID:       &companyID,
		CategoryID:      &categoryID,
		CreatedAt:       time.Now(),
	}).Error)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounting/records?company_id=C1", nil)
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acme Ltd")
	assert.Contains(t, rec.Body.String(), "Groceries")
}

func TestGetRecordsEndpointRequiresCompanyID(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounting/records", nil)
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
