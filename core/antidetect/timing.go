package antidetect

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func randInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Int63n(n)
}

func randFloat64() float64 {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Float64()
}

// JitterDelay adds or subtracts up to jitterPercent of baseDelay.
func JitterDelay(baseDelay time.Duration, jitterPercent float64) time.Duration {
	if jitterPercent <= 0 || baseDelay <= 0 {
		return baseDelay
	}

	jitterRange := float64(baseDelay) * jitterPercent / 100.0
	jitter := time.Duration(randFloat64() * jitterRange)

	if randInt63n(2) == 0 {
		return baseDelay + jitter
	}

	result := baseDelay - jitter
	if result < 0 {
		result = baseDelay / 2
	}
	return result
}

// RandomDelay generates a random delay within [min, max).
func RandomDelay(min, max time.Duration) time.Duration {
	if min >= max {
		return min
	}
	return min + time.Duration(randInt63n(int64(max-min)))
}

// SleepContext sleeps for d unless ctx is cancelled first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ScrollPause returns a short human-looking pause between scroll steps.
func ScrollPause(base time.Duration) time.Duration {
	return RandomDelay(base, base+base/2)
}
