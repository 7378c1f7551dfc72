package pkg

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDistributedLimiter_UnlimitedWhenRateIsZero(t *testing.T) {
	limiter := NewDistributedLimiter(nil, "test", 0, 0, time.Minute, zap.NewNop())
	for i := 0; i < 100; i++ {
		assert.True(t, limiter.Allow(context.Background(), "user-1"))
	}
}

func TestDistributedLimiter_LocalBurst(t *testing.T) {
	limiter := NewDistributedLimiter(nil, "test", 1, 2, time.Minute, zap.NewNop())

	assert.True(t, limiter.Allow(context.Background(), "user-1"))
	assert.True(t, limiter.Allow(context.Background(), "user-1"))
	assert.False(t, limiter.Allow(context.Background(), "user-1"))
}

func TestDistributedLimiter_SubjectsHaveSeparateBuckets(t *testing.T) {
	limiter := NewDistributedLimiter(nil, "test", 1, 2, time.Minute, zap.NewNop())
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "user-1"))
	assert.True(t, limiter.Allow(ctx, "user-1"))
	assert.False(t, limiter.Allow(ctx, "user-1"))

	// user-1 exhausting its burst leaves user-2 untouched
	assert.True(t, limiter.Allow(ctx, "user-2"))
	assert.True(t, limiter.Allow(ctx, "user-2"))
	assert.False(t, limiter.Allow(ctx, "user-2"))
}

func TestDistributedLimiter_EvictsIdleSubjects(t *testing.T) {
	limiter := NewDistributedLimiter(nil, "test", 1, 1, time.Minute, zap.NewNop())
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "idle"))
	assert.True(t, limiter.Allow(ctx, "busy"))
	assert.Len(t, limiter.buckets, 2)

	clock = clock.Add(idleSubjectTTL / 2)
	limiter.Allow(ctx, "busy")
	clock = clock.Add(idleSubjectTTL / 2)
	limiter.Allow(ctx, "busy")

	assert.Len(t, limiter.buckets, 1)
	assert.Contains(t, limiter.buckets, "busy")
	// a returning subject starts with a full bucket
	assert.True(t, limiter.Allow(ctx, "idle"))
}

func TestDistributedLimiter_FallsBackToLocalWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	limiter := NewDistributedLimiter(client, "test", 10, 10, time.Minute, zap.NewNop())

	assert.True(t, limiter.Allow(context.Background(), "user-1"))
}
