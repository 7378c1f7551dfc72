package utils

import (
	"math/rand"
	"time"
)

// CalculateExponentialBackoffWithJitter computes a jittered exponential backoff delay.
// - count: Retry attempt number (1-based, e.g., 1 for first retry)
// - base: Base delay (e.g., 500 * time.Millisecond)
// - max: Maximum allowable delay (e.g., 30 * time.Second)
func CalculateExponentialBackoffWithJitter(count int, base time.Duration, max time.Duration) time.Duration {
	if count <= 0 || base <= 0 {
		return 0
	}

	// base * 2^(count-1), stopping once max is reached so the shift never overflows
	baseDelay := base
	for i := 1; i < count && baseDelay < max; i++ {
		baseDelay *= 2
	}
	if max > 0 && baseDelay > max {
		baseDelay = max
	}

	// -12.5% to +12.5%
	delay := baseDelay
	if spread := int64(baseDelay / 4); spread > 0 {
		delay += time.Duration(rand.Int63n(spread)) - baseDelay/8
	}

	if max > 0 && delay > max {
		delay = max
	}
	return delay
}
