package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConfig_OptionsDefaults(t *testing.T) {
	opts := Config{Addr: "localhost:6379"}.Options()
	assert.Equal(t, 3*time.Second, opts.DialTimeout)
	assert.Equal(t, 10, opts.PoolSize)
	assert.Equal(t, 3, opts.MaxRetries)
	assert.Equal(t, 50*time.Millisecond, opts.MinRetryBackoff)
	assert.Nil(t, opts.TLSConfig)

	opts = Config{Addr: "localhost:6379", PoolSize: 42, UseTLS: true}.Options()
	assert.Equal(t, 42, opts.PoolSize)
	assert.NotNil(t, opts.TLSConfig)
}

func TestNew_Disabled(t *testing.T) {
	client, closer, err := New(context.Background(), zap.NewNop(), Config{})
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.NotPanics(t, closer)
}

func TestNew_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := New(ctx, zap.NewNop(), Config{Addr: "127.0.0.1:1", MaxRetries: 1, DialTimeout: 100 * time.Millisecond})
	assert.Error(t, err)
}
