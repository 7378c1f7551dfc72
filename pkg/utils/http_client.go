package utils

import (
	"net"
	"net/http"
	"time"
)

const (
	defaultWebhookTimeout  = 5 * time.Second
	defaultMaxConnsPerHost = 16
	idleConnTimeout        = 90 * time.Second
	dialTimeout            = 2 * time.Second
)

// ClientConfig holds the outbound HTTP knobs the notifier tunes.
type ClientConfig struct {
	Timeout               time.Duration // whole request, body included
	ResponseHeaderTimeout time.Duration
	MaxConnsPerHost       int
}

type ClientOption func(*ClientConfig)

func WithClientTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.Timeout = d }
}

func WithResponseHeaderTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.ResponseHeaderTimeout = d }
}

// WithMaxConnsPerHost caps open connections to the webhook host; size it to the job concurrency.
func WithMaxConnsPerHost(n int) ClientOption {
	return func(c *ClientConfig) { c.MaxConnsPerHost = n }
}

// NewHTTPClient builds a client for webhook delivery. Non-positive values fall back to defaults
// so a misconfigured caller never gets a client without a deadline.
func NewHTTPClient(opts ...ClientOption) *http.Client {
	cfg := ClientConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultWebhookTimeout
	}
	if cfg.ResponseHeaderTimeout <= 0 || cfg.ResponseHeaderTimeout > cfg.Timeout {
		cfg.ResponseHeaderTimeout = cfg.Timeout
	}
	if cfg.MaxConnsPerHost <= 0 {
		cfg.MaxConnsPerHost = defaultMaxConnsPerHost
	}

	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxConnsPerHost:       cfg.MaxConnsPerHost,
			MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
			IdleConnTimeout:       idleConnTimeout,
			ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		},
	}
}
