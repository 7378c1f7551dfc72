package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-notifier/configs"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-notifier/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleEvent() views.LedgerEvent {
	return views.LedgerEvent{
		ID:              uuid.NewString(),
		Type:            pkg.EventTransactionCompleted,
		AccountID:       uuid.NewString(),
		TransactionID:   uuid.NewString(),
		TransactionType: pkg.TransactionTypeDeposit,
		Amount:          "500.00",
		Status:          pkg.TransactionStatusCompleted,
		OccurredAt:      time.Now().UTC(),
	}
}

func newNotifier(url string, retries int) *services.WebhookNotifier {
	return services.NewWebhookNotifier(services.WebhookNotifierConfig{
		Logger:      zap.NewNop(),
		URL:         url,
		Client:      &http.Client{Timeout: 2 * time.Second},
		MaxRetries:  retries,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
	})
}

func TestWebhookNotifier_DeliversEvent(t *testing.T) {
	// Arrange
	event := sampleEvent()
	var got views.LedgerEvent
	var traceHeader, keyHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceHeader = r.Header.Get(pkg.HeaderTraceId)
		keyHeader = r.Header.Get(pkg.HeaderIdempotencyKey)
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	// Act
	err := newNotifier(srv.URL, 3).Notify(context.Background(), "trace-1", event)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "trace-1", traceHeader)
	assert.Equal(t, event.ID, keyHeader)
	assert.Equal(t, event.TransactionID, got.TransactionID)
	assert.Equal(t, "500.00", got.Amount)
}

func TestWebhookNotifier_RetriesServerErrors(t *testing.T) {
	// Arrange
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// Act
	err := newNotifier(srv.URL, 3).Notify(context.Background(), "trace-2", sampleEvent())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookNotifier_GivesUpAfterMaxRetries(t *testing.T) {
	// Arrange
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// Act
	err := newNotifier(srv.URL, 2).Notify(context.Background(), "trace-3", sampleEvent())

	// Assert
	require.ErrorIs(t, err, services.ErrRetriesExhausted)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookNotifier_DoesNotRetryClientErrors(t *testing.T) {
	// Arrange
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	// Act
	err := newNotifier(srv.URL, 3).Notify(context.Background(), "trace-4", sampleEvent())

	// Assert
	require.ErrorIs(t, err, services.ErrWebhookRejected)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWebhookNotifier_RetriesTooManyRequests(t *testing.T) {
	// Arrange
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	// Act
	err := newNotifier(srv.URL, 1).Notify(context.Background(), "trace-5", sampleEvent())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestWebhookNotifier_StopsOnCancelledContext(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	n := services.NewWebhookNotifier(services.WebhookNotifierConfig{
		Logger:      zap.NewNop(),
		URL:         srv.URL,
		MaxRetries:  5,
		BaseBackoff: time.Hour,
		MaxBackoff:  time.Hour,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Act
	err := n.Notify(ctx, "trace-6", sampleEvent())

	// Assert
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWebhookNotifierFromConfig_TimesOutSlowWebhook(t *testing.T) {
	// Arrange
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	defer close(release)
	notifier := services.NewWebhookNotifierFromConfig(zap.NewNop(), &configs.Config{
		WebhookURL:        srv.URL,
		WebhookTimeout:    50 * time.Millisecond,
		MaxRetryCount:     1,
		RetryBaseBackoff:  time.Millisecond,
		MaxRetryBackoff:   time.Millisecond,
		MaxConcurrentJobs: 2,
	})

	// Act
	started := time.Now()
	err := notifier.Notify(context.Background(), "trace", sampleEvent())

	// Assert
	require.Error(t, err)
	assert.Less(t, time.Since(started), 2*time.Second)
}
