package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/utils"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-notifier/configs"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-notifier/internal/observability"
	"go.uber.org/zap"
)

var (
	// ErrWebhookRejected is returned when the webhook answers with a non-retryable 4xx.
	ErrWebhookRejected = errors.New("webhook rejected event")
	// ErrRetriesExhausted is returned when every attempt failed with a retryable error.
	ErrRetriesExhausted = errors.New("webhook retries exhausted")
)

// Notifier delivers one ledger event downstream.
type Notifier interface {
	Notify(ctx context.Context, traceID string, event views.LedgerEvent) error
}

type WebhookNotifierConfig struct {
	Logger      *zap.Logger
	URL         string
	Client      *http.Client
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

type WebhookNotifier struct {
	logger      *zap.Logger
	url         string
	client      *http.Client
	maxRetries  int
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

func NewWebhookNotifier(cfg WebhookNotifierConfig) *WebhookNotifier {
	client := cfg.Client
	if client == nil {
		client = utils.NewHTTPClient()
	}
	return &WebhookNotifier{
		logger:      cfg.Logger,
		url:         cfg.URL,
		client:      client,
		maxRetries:  cfg.MaxRetries,
		baseBackoff: cfg.BaseBackoff,
		maxBackoff:  cfg.MaxBackoff,
	}
}

// NewWebhookNotifierFromConfig wires the notifier to the shared HTTP client.
func NewWebhookNotifierFromConfig(logger *zap.Logger, cfg *configs.Config) *WebhookNotifier {
	return NewWebhookNotifier(WebhookNotifierConfig{
		Logger: logger,
		URL:    cfg.WebhookURL,
		Client: utils.NewHTTPClient(
			utils.WithClientTimeout(cfg.WebhookTimeout),
			utils.WithResponseHeaderTimeout(cfg.WebhookTimeout),
			utils.WithMaxConnsPerHost(cfg.MaxConcurrentJobs),
		),
		MaxRetries:  cfg.MaxRetryCount,
		BaseBackoff: cfg.RetryBaseBackoff,
		MaxBackoff:  cfg.MaxRetryBackoff,
	})
}

// Notify posts the event and retries transport errors, 429 and 5xx with jittered exponential backoff.
func (w *WebhookNotifier) Notify(ctx context.Context, traceID string, event views.LedgerEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		if attempt > 0 {
			delay := utils.CalculateExponentialBackoffWithJitter(attempt, w.baseBackoff, w.maxBackoff)
			w.logger.Warn("retrying webhook delivery",
				zap.String(pkg.TraceId, traceID),
				zap.String(pkg.EventId, event.ID),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		retryable, err := w.post(ctx, traceID, event.ID, body)
		if err == nil {
			observability.DeliveryAttempts.WithLabelValues("ok").Inc()
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retryable {
			observability.DeliveryAttempts.WithLabelValues("rejected").Inc()
			return err
		}
		observability.DeliveryAttempts.WithLabelValues("retryable").Inc()
		lastErr = err
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, w.maxRetries+1, lastErr)
}

func (w *WebhookNotifier) post(ctx context.Context, traceID, eventID string, body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(pkg.HeaderTraceId, traceID)
	req.Header.Set(pkg.HeaderIdempotencyKey, eventID)

	resp, err := w.client.Do(req)
	if err != nil {
		return true, fmt.Errorf("webhook call failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, fmt.Errorf("webhook returned %d", resp.StatusCode)
	default:
		return false, fmt.Errorf("%w: status %d", ErrWebhookRejected, resp.StatusCode)
	}
}
