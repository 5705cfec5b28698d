package queue

import (
	"time"

	"github.com/schorsch3000/squeuelite/pkg/core"
)

// Default configuration values.
const (
	DefaultStallTimeout    = 300 * time.Second
	DefaultMaxRetries      = 3
	DefaultDoneRetention   = 3600 * time.Second
	DefaultFailedRetention = 3600 * time.Second
)

// MinStallTimeout is the smallest accepted stall timeout.
const MinStallTimeout = time.Second

// Config holds the timing and retry settings of a Queue. A Config is a
// value; the Queue never mutates one in place.
type Config struct {
	// StallTimeout is how long a Locked job may go without a heartbeat
	// before it returns to Ready.
	StallTimeout time.Duration

	// MaxRetries is the number of stall reclaims after which a job is Failed.
	MaxRetries int

	// DoneRetention is how long Done jobs are kept, counted from creation.
	DoneRetention time.Duration

	// FailedRetention is how long Failed jobs are kept, counted from creation.
	FailedRetention time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		StallTimeout:    DefaultStallTimeout,
		MaxRetries:      DefaultMaxRetries,
		DoneRetention:   DefaultDoneRetention,
		FailedRetention: DefaultFailedRetention,
	}
}

// Validate checks every field against its allowed range.
func (c Config) Validate() error {
	if c.StallTimeout < MinStallTimeout {
		return core.ErrInvalidStallTimeout
	}
	if c.MaxRetries < 0 {
		return core.ErrInvalidMaxRetries
	}
	if c.DoneRetention < 0 {
		return core.ErrInvalidDoneRetention
	}
	if c.FailedRetention < 0 {
		return core.ErrInvalidFailedRetention
	}
	return nil
}

func (c Config) sweepRequest(now time.Time) core.SweepRequest {
	return core.SweepRequest{
		DoneCutoff:   now.Add(-c.DoneRetention),
		FailedCutoff: now.Add(-c.FailedRetention),
		StallCutoff:  now.Add(-c.StallTimeout),
		MaxRetries:   c.MaxRetries,
	}
}

func (c Config) claimRequest(now time.Time, queues []string) core.ClaimRequest {
	return core.ClaimRequest{
		Queues:      queues,
		Now:         now,
		StallCutoff: now.Add(-c.StallTimeout),
		MaxRetries:  c.MaxRetries,
	}
}
