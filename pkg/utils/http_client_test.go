package utils

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_AppliesOptions(t *testing.T) {
	// Act
	client := NewHTTPClient(
		WithClientTimeout(3*time.Second),
		WithResponseHeaderTimeout(time.Second),
		WithMaxConnsPerHost(4),
	)

	// Assert
	tr, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, client.Timeout)
	assert.Equal(t, time.Second, tr.ResponseHeaderTimeout)
	assert.Equal(t, 4, tr.MaxConnsPerHost)
	assert.Equal(t, 4, tr.MaxIdleConnsPerHost)
}

func TestNewHTTPClient_FillsDefaults(t *testing.T) {
	// Act
	client := NewHTTPClient(WithClientTimeout(-1), WithMaxConnsPerHost(0))

	// Assert
	tr := client.Transport.(*http.Transport)
	assert.Equal(t, defaultWebhookTimeout, client.Timeout)
	assert.Equal(t, defaultWebhookTimeout, tr.ResponseHeaderTimeout)
	assert.Equal(t, defaultMaxConnsPerHost, tr.MaxConnsPerHost)
}

func TestNewHTTPClient_HeaderTimeoutNeverExceedsRequestTimeout(t *testing.T) {
	client := NewHTTPClient(WithClientTimeout(time.Second), WithResponseHeaderTimeout(time.Minute))

	tr := client.Transport.(*http.Transport)
	assert.Equal(t, time.Second, tr.ResponseHeaderTimeout)
}
