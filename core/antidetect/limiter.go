package antidetect

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// LimiterConfig tunes the adaptive pacing policy.
type LimiterConfig struct {
	BaseDelay      time.Duration
	FastThreshold  time.Duration
	FastPenalty    time.Duration
	FastGraceCount int
	Growth         float64
	FailurePenalty time.Duration
	Jitter         time.Duration
	MaxDelay       time.Duration
}

func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		BaseDelay:      2 * time.Second,
		FastThreshold:  time.Second,
		FastPenalty:    3 * time.Second,
		FastGraceCount: 5,
		Growth:         1.2,
		FailurePenalty: 2 * time.Second,
		Jitter:         1500 * time.Millisecond,
		MaxDelay:       90 * time.Second,
	}
}

// AdaptiveLimiter spaces out requests to the source site. It reacts to two
// signals: requests issued in quick succession and navigation failures.
type AdaptiveLimiter struct {
	mu              sync.Mutex
	cfg             LimiterConfig
	lastRequest     time.Time
	consecutiveFast int
	failures        int
	now             func() time.Time
	rng             *rand.Rand
	sleep           func(ctx context.Context, d time.Duration) error
}

// LimiterOption customises an AdaptiveLimiter.
type LimiterOption func(*AdaptiveLimiter)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) LimiterOption {
	return func(l *AdaptiveLimiter) { l.now = now }
}

// WithRand replaces the jitter source.
func WithRand(rng *rand.Rand) LimiterOption {
	return func(l *AdaptiveLimiter) { l.rng = rng }
}

// WithSleeper replaces the context-aware sleep used by Wait.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) LimiterOption {
	return func(l *AdaptiveLimiter) { l.sleep = sleep }
}

func NewAdaptiveLimiter(cfg LimiterConfig, opts ...LimiterOption) *AdaptiveLimiter {
	def := DefaultLimiterConfig()
	if cfg.BaseDelay < 0 {
		cfg.BaseDelay = 0
	}
	if cfg.FastThreshold <= 0 {
		cfg.FastThreshold = def.FastThreshold
	}
	if cfg.FastGraceCount <= 0 {
		cfg.FastGraceCount = def.FastGraceCount
	}
	if cfg.Growth < 1 {
		cfg.Growth = def.Growth
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	l := &AdaptiveLimiter{
		cfg:   cfg,
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: SleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NextDelay computes the pause to observe before the next request and marks
// the request as issued.
func (l *AdaptiveLimiter) NextDelay() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	delay := l.cfg.BaseDelay

	if !l.lastRequest.IsZero() && now.Sub(l.lastRequest) < l.cfg.FastThreshold {
		l.consecutiveFast++
		delay += l.cfg.FastPenalty
	} else if l.consecutiveFast > 0 {
		l.consecutiveFast--
	}

	if over := l.consecutiveFast - l.cfg.FastGraceCount; over > 0 {
		delay = time.Duration(float64(delay) * math.Pow(l.cfg.Growth, float64(over)))
	}

	delay += time.Duration(l.failures) * l.cfg.FailurePenalty

	if l.cfg.Jitter > 0 {
		delay += time.Duration(l.rng.Int63n(int64(l.cfg.Jitter)))
	}
	if delay > l.cfg.MaxDelay {
		delay = l.cfg.MaxDelay
	}

	l.lastRequest = now
	return delay
}

// Wait sleeps for NextDelay or until ctx is done.
func (l *AdaptiveLimiter) Wait(ctx context.Context) error {
	return l.sleep(ctx, l.NextDelay())
}

// RecordFailure adds one outstanding failure.
func (l *AdaptiveLimiter) RecordFailure() {
	l.mu.Lock()
	l.failures++
	l.mu.Unlock()
}

// RecordSuccess settles one outstanding failure.
func (l *AdaptiveLimiter) RecordSuccess() {
	l.mu.Lock()
	if l.failures > 0 {
		l.failures--
	}
	l.mu.Unlock()
}

// Reset clears all counters.
func (l *AdaptiveLimiter) Reset() {
	l.mu.Lock()
	l.consecutiveFast = 0
	l.failures = 0
	l.lastRequest = time.Time{}
	l.mu.Unlock()
}

// Snapshot returns the current fast-request and failure counters.
func (l *AdaptiveLimiter) Snapshot() (consecutiveFast, failures int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.consecutiveFast, l.failures
}
