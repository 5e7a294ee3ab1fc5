package errors

import (
	"math/rand"
	"time"
)

// RetryConfig holds configuration for exponential-backoff retry behavior,
// shared by the webhook delivery pipeline's scheduler.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	// JitterFraction randomizes each computed delay by +/- this fraction
	// (0.2 == +/-20%). Zero disables jitter.
	JitterFraction float64
}

// DefaultRetryConfig mirrors the webhook pipeline's defaults.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:    5,
		InitialDelay:   time.Second,
		MaxDelay:       60 * time.Second,
		BackoffFactor:  2.0,
		JitterFraction: 0.2,
	}
}

// DelayForAttempt computes delay = min(MaxDelay, InitialDelay *
// BackoffFactor^(attempt-1)) with uniform jitter in
// [-JitterFraction, +JitterFraction] applied, for attempt >= 1.
func (c *RetryConfig) DelayForAttempt(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(c.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= c.BackoffFactor
		if delay > float64(c.MaxDelay) {
			delay = float64(c.MaxDelay)
			break
		}
	}

	if c.JitterFraction > 0 {
		jitter := 1 + (rand.Float64()*2-1)*c.JitterFraction
		delay *= jitter
	}

	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// RetryWithBackoff executes fn, retrying with exponential backoff until it
// succeeds or MaxAttempts is exhausted. The webhook pipeline does not call
// it; its async scheduler uses DelayForAttempt directly.
func RetryWithBackoff(config *RetryConfig, fn func() error) error {
	var err error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		if attempt == config.MaxAttempts {
			break
		}

		time.Sleep(config.DelayForAttempt(attempt))
	}

	return err
}
