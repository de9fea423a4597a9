package antidetect

import (
	"time"
)

// RetryConfig holds the navigation retry budget and backoff bounds.
type RetryConfig struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	JitterPercent float64
}

// DefaultRetryConfig returns the navigation retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		BaseDelay:     2 * time.Second,
		MaxDelay:      30 * time.Second,
		JitterPercent: 10.0,
	}
}

// Delay returns the pause before attempt (zero-based). The first attempt is
// never delayed.
func (rc RetryConfig) Delay(attempt int) time.Duration {
	if attempt <= 0 || rc.BaseDelay <= 0 {
		return 0
	}
	maxDelay := rc.MaxDelay
	if maxDelay <= 0 {
		maxDelay = rc.BaseDelay
	}
	delay := rc.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
			break
		}
	}
	return JitterDelay(delay, rc.JitterPercent)
}

// Attempts returns the effective attempt budget, at least one.
func (rc RetryConfig) Attempts() int {
	if rc.MaxAttempts <= 0 {
		return 1
	}
	return rc.MaxAttempts
}
