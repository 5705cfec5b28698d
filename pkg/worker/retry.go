package worker

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/schorsch3000/squeuelite/pkg/core"
)

// RetryConfig holds configuration for retrying storage calls with backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	// Default: 5
	MaxAttempts int

	// InitialBackoff is the wait after the first failure.
	// Default: 100ms
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between attempts.
	// Default: 5s
	MaxBackoff time.Duration

	// BackoffMultiplier is applied to the wait after each attempt.
	// Default: 2.0
	BackoffMultiplier float64

	// JitterFraction is the fraction of the wait to randomize (0.0 to 1.0).
	// Default: 0.1
	JitterFraction float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
		JitterFraction:    0.1,
	}
}

// defaultClaimRetry backs off longer than DefaultRetryConfig so an outage
// is not hammered by every idle worker.
func defaultClaimRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
		JitterFraction:    0.2,
	}
}

// WithRetryAttempts sets the attempt count for storage calls and keeps the
// default backoff.
func WithRetryAttempts(n int) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		cfg := DefaultRetryConfig()
		cfg.MaxAttempts = n
		c.StorageRetry = &cfg
	})
}

// DisableRetry makes every storage call a single attempt.
func DisableRetry() WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		once := RetryConfig{MaxAttempts: 1}
		c.StorageRetry = &once
		claimOnce := once
		c.ClaimRetry = &claimOnce
	})
}

// retryWithBackoff runs operation until it succeeds, returns a permanent
// error, or MaxAttempts is used up. It returns the last error. Operation
// always runs at least once.
func retryWithBackoff(ctx context.Context, config RetryConfig, operation func() error) error {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		lastErr = operation()
		if lastErr == nil || !IsRetryableError(lastErr) {
			return lastErr
		}
		if attempt >= config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jittered(backoff, config.JitterFraction)):
		}

		backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	return lastErr
}

func jittered(d time.Duration, fraction float64) time.Duration {
	jitter := time.Duration(float64(d) * fraction * (rand.Float64()*2 - 1))
	if d+jitter < 0 {
		return d
	}
	return d + jitter
}

// IsRetryableError reports whether err may go away on its own. Context
// errors and validation errors never do; storage errors (locked database,
// dropped connection, serialization failure) usually do.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, core.ErrPayloadTooLarge) ||
		errors.Is(err, core.ErrInvalidQueueName) ||
		errors.Is(err, core.ErrQueueNameTooLong) {
		return false
	}
	return true
}
