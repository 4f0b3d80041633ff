package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hyeonwoo/ledgerflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifierPostsTerminalJob(t *testing.T) {
	received := make(chan *domain.ProcessingJob, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var job domain.ProcessingJob
		require.NoError(t, json.NewDecoder(r.Body).Decode(&job))
		received <- &job
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(&NotifierConfig{WebhookURL: srv.URL, Timeout: 2 * time.Second}, quietLogger())
	require.True(t, n.Enabled())

	msg := "row 5: transaction_date: unrecognized timestamp"
	job := &domain.ProcessingJob{
		JobID:        "11111111-2222-3333-4444-555555555555",
		Status:       domain.JobStatusFailed,
		ErrorMessage: &msg,
	}
	n.JobFinished(context.Background(), job)

	select {
	case got := <-received:
		assert.Equal(t, job.JobID, got.JobID)
		assert.Equal(t, domain.JobStatusFailed, got.Status)
		require.NotNil(t, got.ErrorMessage)
		assert.Equal(t, msg, *got.ErrorMessage)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was never called")
	}
}

func TestNotifierDisabledWithoutURL(t *testing.T) {
	n := NewNotifier(&NotifierConfig{}, quietLogger())
	assert.False(t, n.Enabled())

	// Must be a no-op, not a panic or a post to an empty URL.
	n.JobFinished(context.Background(), &domain.ProcessingJob{JobID: "x", Status: domain.JobStatusCompleted})
}

func TestNotifierSwallowsDeliveryFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewNotifier(&NotifierConfig{WebhookURL: srv.URL, Timeout: time.Second}, quietLogger())

	// A rejecting endpoint is logged and ignored.
	n.JobFinished(context.Background(), &domain.ProcessingJob{JobID: "x", Status: domain.JobStatusCompleted})
}
