package cache

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config holds Redis connection options. An empty Addr disables Redis.
type Config struct {
	Addr            string
	Username        string
	Password        string
	DB              int
	UseTLS          bool
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PoolSize        int
	MinIdleConns    int
	MaxRetries      int
	MaxRetryBackoff time.Duration
	MinRetryBackoff time.Duration
}

func (c Config) Enabled() bool {
	return c.Addr != ""
}

// Options converts cfg into go-redis options with defaults applied.
func (c Config) Options() *redis.Options {
	opts := &redis.Options{
		Addr:            c.Addr,
		Username:        c.Username,
		Password:        c.Password,
		DB:              c.DB,
		DialTimeout:     defaultDuration(c.DialTimeout, 3*time.Second),
		ReadTimeout:     defaultDuration(c.ReadTimeout, 2*time.Second),
		WriteTimeout:    defaultDuration(c.WriteTimeout, 2*time.Second),
		PoolSize:        defaultInt(c.PoolSize, 10),
		MinIdleConns:    defaultInt(c.MinIdleConns, 2),
		MaxRetries:      defaultInt(c.MaxRetries, 3),
		MinRetryBackoff: defaultDuration(c.MinRetryBackoff, 50*time.Millisecond),
		MaxRetryBackoff: defaultDuration(c.MaxRetryBackoff, 500*time.Millisecond),
	}
	if c.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// New returns a configured redis.Client and verifies connectivity with PING.
// When cfg is not enabled it returns a nil client and a no-op closer.
func New(ctx context.Context, logger *zap.Logger, cfg Config) (*redis.Client, func(), error) {
	if !cfg.Enabled() {
		logger.Info("redis disabled; rate limiting is process local")
		return nil, func() {}, nil
	}
	client := redis.NewClient(cfg.Options())
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	logger.Info("redis connected", zap.String("addr", cfg.Addr))

	closer := func() {
		if err := client.Close(); err != nil {
			logger.Warn("redis close failed", zap.Error(err))
		}
	}
	return client, closer, nil
}

func defaultDuration(v, d time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return d
}

func defaultInt(v, d int) int {
	if v > 0 {
		return v
	}
	return d
}
