package errors

import (
	"errors"
	"testing"
	"time"
)

func TestDelayForAttemptExponentialGrowth(t *testing.T) {
	cfg := &RetryConfig{
		MaxAttempts:   5,
		InitialDelay:  time.Second,
		MaxDelay:      60 * time.Second,
		BackoffFactor: 2.0,
	}

	d1 := cfg.DelayForAttempt(1)
	d2 := cfg.DelayForAttempt(2)
	d3 := cfg.DelayForAttempt(3)

	if d1 != time.Second {
		t.Fatalf("expected first attempt delay == InitialDelay, got %v", d1)
	}
	if d2 != 2*time.Second {
		t.Fatalf("expected second attempt delay == 2s, got %v", d2)
	}
	if d3 != 4*time.Second {
		t.Fatalf("expected third attempt delay == 4s, got %v", d3)
	}
}

func TestDelayForAttemptCapsAtMaxDelay(t *testing.T) {
	cfg := &RetryConfig{
		MaxAttempts:   10,
		InitialDelay:  time.Second,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}

	d := cfg.DelayForAttempt(10)
	if d > cfg.MaxDelay {
		t.Fatalf("expected delay capped at %v, got %v", cfg.MaxDelay, d)
	}
}

func TestDelayForAttemptJitterStaysInBounds(t *testing.T) {
	cfg := &RetryConfig{
		MaxAttempts:    5,
		InitialDelay:   10 * time.Second,
		MaxDelay:       60 * time.Second,
		BackoffFactor:  2.0,
		JitterFraction: 0.2,
	}

	for i := 0; i < 50; i++ {
		d := cfg.DelayForAttempt(1)
		if d < 8*time.Second || d > 12*time.Second {
			t.Fatalf("jittered delay %v out of expected +/-20%% bounds", d)
		}
	}
}

func TestRetryWithBackoffSucceedsEventually(t *testing.T) {
	cfg := &RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}

	attempts := 0
	err := RetryWithBackoff(cfg, func() error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetryWithBackoffExhaustsAttempts(t *testing.T) {
	cfg := &RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}

	attempts := 0
	err := RetryWithBackoff(cfg, func() error {
		attempts++
		return errors.New("permanent")
	})

	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if attempts != 3 {
		t.Fatalf("expected exactly MaxAttempts attempts, got %d", attempts)
	}
}
