package service

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hyeonwoo/ledgerflow/internal/domain"
	"github.com/hyeonwoo/ledgerflow/internal/logger"
)

// Notifier posts terminal job states to a configured downstream
// webhook. Delivery is best-effort: a failed post is logged and
// forgotten, it never affects the job outcome.
type Notifier struct {
	client *resty.Client
	url    string
	logger *logger.Logger
}

// NotifierConfig holds webhook settings. An empty WebhookURL disables
// notifications entirely.
type NotifierConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// NewNotifier creates a new Notifier.
func NewNotifier(cfg *NotifierConfig, log *logger.Logger) *Notifier {
	timeout := 10 * time.Second
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(2)
	client.SetHeader("Content-Type", "application/json")

	return &Notifier{
		client: client,
		url:    cfg.WebhookURL,
		logger: log,
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool {
	return n.url != ""
}

// JobFinished posts the terminal job record to the webhook.
func (n *Notifier) JobFinished(ctx context.Context, job *domain.ProcessingJob) {
	if !n.Enabled() {
		return
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(job).
		Post(n.url)

	log := n.logger.WithFields(logger.Fields{
		logger.FieldJobID:  job.JobID,
		logger.FieldStatus: string(job.Status),
	})
	if err != nil {
		log.WithError(err).Error("Failed to deliver job webhook")
		return
	}
	if resp.IsError() {
		log.WithField("http_status", resp.StatusCode()).Error("Job webhook rejected")
		return
	}
	log.Debug("Job webhook delivered")
}
