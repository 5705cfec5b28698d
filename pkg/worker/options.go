package worker

import (
	"log/slog"
	"time"

	"github.com/schorsch3000/squeuelite/pkg/schedule"
	"github.com/schorsch3000/squeuelite/pkg/security"
)

// WorkerOption configures a Worker.
type WorkerOption interface {
	ApplyWorker(*WorkerConfig)
}

type workerOptionFunc func(*WorkerConfig)

func (f workerOptionFunc) ApplyWorker(c *WorkerConfig) { f(c) }

// WorkerConfig holds worker configuration.
type WorkerConfig struct {
	// Queues restricts claiming to these queues. Empty means every queue.
	Queues []string

	// Concurrency is the number of jobs run at once.
	Concurrency int

	// PollInterval is how often the worker looks for work when idle.
	PollInterval time.Duration

	// HeartbeatInterval is how often a running job's lock is renewed.
	// Zero means a third of the queue's stall timeout.
	HeartbeatInterval time.Duration

	// Maintenance, when set, runs a full queue sweep on this schedule.
	Maintenance schedule.Schedule

	WorkerID string
	Logger   *slog.Logger

	StorageRetry *RetryConfig
	ClaimRetry   *RetryConfig
}

// WorkerQueue adds a queue to process.
func WorkerQueue(names ...string) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.Queues = append(c.Queues, names...)
	})
}

// Concurrency sets how many jobs run at once.
// Values are clamped to [1, MaxConcurrency].
func Concurrency(n int) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.Concurrency = security.ClampConcurrency(n)
	})
}

// PollInterval sets how often an idle worker polls for work.
func PollInterval(d time.Duration) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.PollInterval = d
	})
}

// HeartbeatInterval sets how often running jobs renew their lock.
func HeartbeatInterval(d time.Duration) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.HeartbeatInterval = d
	})
}

// WithMaintenance enables periodic sweeps on the given schedule.
func WithMaintenance(s schedule.Schedule) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.Maintenance = s
	})
}

// WorkerID sets the identifier used in logs. Defaults to a random UUID.
func WorkerID(id string) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.WorkerID = id
	})
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.Logger = l
	})
}

// WithStorageRetry sets the retry policy for heartbeat and complete calls.
func WithStorageRetry(cfg RetryConfig) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.StorageRetry = &cfg
	})
}

// WithClaimRetry sets the retry policy for claim calls.
func WithClaimRetry(cfg RetryConfig) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.ClaimRetry = &cfg
	})
}
