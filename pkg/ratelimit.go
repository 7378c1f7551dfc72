package pkg

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// idleSubjectTTL is how long an unused subject bucket is kept. A bucket idle that long is full again.
const idleSubjectTTL = 10 * time.Minute

type subjectBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// DistributedLimiter gives every subject its own token bucket, plus a per-subject Redis
// fixed-window counter shared across replicas.
type DistributedLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*subjectBucket
	lastSweep time.Time
	now       func() time.Time

	limit       rate.Limit
	burst       int
	redisClient *redis.Client // nil: local enforcement only
	keyPrefix   string        // e.g: "ledger:intake"
	ttl         time.Duration // counter window, e.g: 1s
	logger      *zap.Logger
}

// NewDistributedLimiter creates a limiter; if ratePerSec=0, it's unlimited.
func NewDistributedLimiter(redisClient *redis.Client, keyPrefix string, ratePerSec, burst int, ttl time.Duration, logger *zap.Logger) *DistributedLimiter {
	return &DistributedLimiter{
		buckets:     make(map[string]*subjectBucket),
		now:         time.Now,
		limit:       rate.Limit(ratePerSec),
		burst:       burst,
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
		ttl:         ttl,
		logger:      logger,
	}
}

// Allow checks if a token is available for subject; uses Redis for the distributed count.
func (d *DistributedLimiter) Allow(ctx context.Context, subject string) bool {
	if d.limit <= 0 {
		return true // Unlimited
	}

	// Local check first (fast path)
	if !d.allowLocal(subject) {
		return false
	}
	if d.redisClient == nil {
		return true
	}

	// Distributed check via Redis atomic increment. The window starts with the first hit;
	// NX keeps later hits from pushing the expiry out.
	key := d.keyPrefix + ":" + subject
	pipe := d.redisClient.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, d.ttl)
	_, err := pipe.Exec(ctx)
	if err != nil {
		d.logger.Error("redis rate limit error; falling back to local", zap.Error(err))
		return true
	}

	count := incr.Val()
	if count > int64(d.burst) {
		d.logger.Warn("global rate limit exceeded", zap.String("subject", subject), zap.Int64("count", count))
		return false
	}
	return true
}

func (d *DistributedLimiter) allowLocal(subject string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if now.Sub(d.lastSweep) >= idleSubjectTTL {
		for key, b := range d.buckets {
			if now.Sub(b.lastSeen) >= idleSubjectTTL {
				delete(d.buckets, key)
			}
		}
		d.lastSweep = now
	}

	b, ok := d.buckets[subject]
	if !ok {
		b = &subjectBucket{limiter: rate.NewLimiter(d.limit, d.burst)}
		d.buckets[subject] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}
