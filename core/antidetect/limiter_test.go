package antidetect

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(cfg LimiterConfig) (*AdaptiveLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	l := NewAdaptiveLimiter(cfg, WithClock(clock.Now), WithRand(rand.New(rand.NewSource(1))))
	return l, clock
}

func noJitter() LimiterConfig {
	cfg := DefaultLimiterConfig()
	cfg.Jitter = 0
	return cfg
}

func TestLimiterPenalisesFastRequests(t *testing.T) {
	fast, fastClock := newTestLimiter(noJitter())
	slow, slowClock := newTestLimiter(noJitter())

	fast.NextDelay()
	fastClock.Advance(200 * time.Millisecond)
	fastDelay := fast.NextDelay()

	slow.NextDelay()
	slowClock.Advance(5 * time.Second)
	slowDelay := slow.NextDelay()

	assert.Greater(t, fastDelay, slowDelay, "requests 200ms apart must be slowed down more than requests 5s apart")
	assert.Equal(t, noJitter().BaseDelay, slowDelay)
	assert.Equal(t, noJitter().BaseDelay+noJitter().FastPenalty, fastDelay)
}

func TestLimiterGrowsAfterSustainedBursts(t *testing.T) {
	cfg := noJitter()
	cfg.MaxDelay = time.Hour
	l, clock := newTestLimiter(cfg)

	l.NextDelay()
	var delays []time.Duration
	for i := 0; i < 8; i++ {
		clock.Advance(100 * time.Millisecond)
		delays = append(delays, l.NextDelay())
	}
	flat := cfg.BaseDelay + cfg.FastPenalty
	for i := 0; i < cfg.FastGraceCount; i++ {
		assert.Equal(t, flat, delays[i], "delay %d should be linear", i)
	}
	assert.Greater(t, delays[cfg.FastGraceCount], flat)
	assert.Greater(t, delays[7], delays[6])
}

func TestLimiterFastCounterDecays(t *testing.T) {
	l, clock := newTestLimiter(noJitter())
	l.NextDelay()
	clock.Advance(100 * time.Millisecond)
	l.NextDelay()
	clock.Advance(100 * time.Millisecond)
	l.NextDelay()
	fastCount, _ := l.Snapshot()
	require.Equal(t, 2, fastCount)

	clock.Advance(10 * time.Second)
	l.NextDelay()
	fastCount, _ = l.Snapshot()
	assert.Equal(t, 1, fastCount)
}

func TestLimiterFailurePenaltyIsLinear(t *testing.T) {
	cfg := noJitter()
	l, clock := newTestLimiter(cfg)
	l.RecordFailure()
	l.RecordFailure()
	clock.Advance(10 * time.Second)
	assert.Equal(t, cfg.BaseDelay+2*cfg.FailurePenalty, l.NextDelay())

	l.RecordSuccess()
	clock.Advance(10 * time.Second)
	assert.Equal(t, cfg.BaseDelay+cfg.FailurePenalty, l.NextDelay())

	l.Reset()
	clock.Advance(10 * time.Second)
	assert.Equal(t, cfg.BaseDelay, l.NextDelay())
}

func TestLimiterJitterAndCap(t *testing.T) {
	cfg := DefaultLimiterConfig()
	cfg.MaxDelay = 3 * time.Second
	l, clock := newTestLimiter(cfg)
	for i := 0; i < 20; i++ {
		clock.Advance(50 * time.Millisecond)
		d := l.NextDelay()
		assert.GreaterOrEqual(t, d, cfg.BaseDelay)
		assert.LessOrEqual(t, d, cfg.MaxDelay)
	}
}

func TestLimiterWaitUsesSleeper(t *testing.T) {
	var slept time.Duration
	l := NewAdaptiveLimiter(noJitter(), WithSleeper(func(_ context.Context, d time.Duration) error {
		slept = d
		return nil
	}))
	require.NoError(t, l.Wait(context.Background()))
	assert.Equal(t, noJitter().BaseDelay, slept)
}

func TestSleepContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := SleepContext(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
