// Package squeuelite provides a persistent work queue stored in a single
// SQLite file (or a shared Postgres database).
//
// This is the main package users should import. It re-exports the public
// types from the pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	store, _ := squeuelite.OpenStorage(ctx, "jobs.db")
//	defer store.Close()
//	q, _ := squeuelite.New(store)
//
//	// Producer
//	id, _ := q.Enqueue(ctx, "thumbnails", "photo-17.jpg")
//
//	// Consumer, by hand
//	h, _ := q.Claim(ctx, "thumbnails")
//	if h != nil {
//	    h.Complete(ctx, render(h.Input()))
//	}
//
//	// Consumer, with a worker
//	w, _ := squeuelite.NewWorker(q, func(ctx context.Context, path string) (string, error) {
//	    return render(path), nil
//	})
//	w.Start(ctx)
//
//	// Later
//	var out string
//	done, _ := q.IsReady(ctx, id, &out)
package squeuelite

import (
	"context"
	"time"

	"github.com/schorsch3000/squeuelite/pkg/codec"
	"github.com/schorsch3000/squeuelite/pkg/core"
	"github.com/schorsch3000/squeuelite/pkg/jobctx"
	"github.com/schorsch3000/squeuelite/pkg/queue"
	"github.com/schorsch3000/squeuelite/pkg/schedule"
	"github.com/schorsch3000/squeuelite/pkg/security"
	"github.com/schorsch3000/squeuelite/pkg/storage"
	"github.com/schorsch3000/squeuelite/pkg/worker"
)

type (
	// Job is one row of the queue table.
	Job = core.Job

	// JobStatus is the stored lifecycle state of a job.
	JobStatus = core.JobStatus

	// Storage defines the persistence layer for jobs.
	Storage = core.Storage

	// SweepResult reports how many rows a maintenance pass touched.
	SweepResult = core.SweepResult

	// Event is the interface for all queue events.
	Event = core.Event

	// JobEnqueued is emitted after a job is added.
	JobEnqueued = core.JobEnqueued

	// JobClaimed is emitted when a job is locked by a consumer.
	JobClaimed = core.JobClaimed

	// JobCompleted is emitted when a job is marked done.
	JobCompleted = core.JobCompleted

	// JobAttemptFailed is emitted when a worker's handler fails.
	JobAttemptFailed = core.JobAttemptFailed

	// JobDeleted is emitted when a job is removed.
	JobDeleted = core.JobDeleted

	// QueueSwept is emitted when maintenance changed at least one row.
	QueueSwept = core.QueueSwept

	// Queue is the producer and consumer API.
	Queue = queue.Queue

	// Config holds the timing and retry settings of a Queue.
	Config = queue.Config

	// Option configures a Queue.
	Option = queue.Option

	// Handle is a claimed job.
	Handle = queue.Handle

	// Result describes a job as reported by Queue.Status.
	Result = queue.Result

	// State is the externally visible state of a job.
	State = queue.State

	// Codec serializes job inputs and outputs.
	Codec = codec.Codec

	// Worker claims jobs and runs a handler on them.
	Worker = worker.Worker

	// WorkerOption configures a Worker.
	WorkerOption = worker.WorkerOption

	// Schedule defines when maintenance runs next.
	Schedule = schedule.Schedule

	// GormStorage implements Storage using GORM.
	GormStorage = storage.GormStorage

	// PoolOption configures the database connection pool.
	PoolOption = storage.PoolOption
)

// Job status constants
const (
	StatusReady  = core.StatusReady
	StatusLocked = core.StatusLocked
	StatusDone   = core.StatusDone
	StatusFailed = core.StatusFailed
)

// Job state constants
const (
	StateNotFound = queue.StateNotFound
	StatePending  = queue.StatePending
	StateRunning  = queue.StateRunning
	StateDone     = queue.StateDone
	StateFailed   = queue.StateFailed
)

// Limits
const (
	MaxQueueNameLength = security.MaxQueueNameLength
	MaxPayloadSize     = security.MaxPayloadSize
	MaxConcurrency     = security.MaxConcurrency
)

// Default configuration values
const (
	DefaultStallTimeout    = queue.DefaultStallTimeout
	DefaultMaxRetries      = queue.DefaultMaxRetries
	DefaultDoneRetention   = queue.DefaultDoneRetention
	DefaultFailedRetention = queue.DefaultFailedRetention
)

// Error variables
var (
	ErrInvalidQueueName       = core.ErrInvalidQueueName
	ErrQueueNameTooLong       = core.ErrQueueNameTooLong
	ErrPayloadTooLarge        = core.ErrPayloadTooLarge
	ErrNoOutput               = core.ErrNoOutput
	ErrInvalidStallTimeout    = core.ErrInvalidStallTimeout
	ErrInvalidMaxRetries      = core.ErrInvalidMaxRetries
	ErrInvalidDoneRetention   = core.ErrInvalidDoneRetention
	ErrInvalidFailedRetention = core.ErrInvalidFailedRetention
	ErrNilStorage             = core.ErrNilStorage
	ErrNilCodec               = core.ErrNilCodec
	ErrNilQueue               = core.ErrNilQueue
	ErrStaticSchedule         = core.ErrStaticSchedule
)

// OpenStorage opens a SQLite file (or a postgres:// URL) and creates the
// queue table if needed.
func OpenStorage(ctx context.Context, dsn string, opts ...PoolOption) (*GormStorage, error) {
	s, err := storage.Open(dsn, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// New creates a Queue on the given storage.
func New(s Storage, opts ...Option) (*Queue, error) {
	return queue.New(s, opts...)
}

// DefaultConfig returns the default queue configuration.
func DefaultConfig() Config {
	return queue.DefaultConfig()
}

// NewWorker creates a worker running fn on claimed jobs. See worker.NewWorker
// for the accepted handler signatures.
func NewWorker(q *Queue, fn any, opts ...WorkerOption) (*Worker, error) {
	return worker.NewWorker(q, fn, opts...)
}

// Queue option functions

// StallTimeout sets how long a claimed job may go without a heartbeat.
func StallTimeout(d time.Duration) Option {
	return queue.StallTimeout(d)
}

// MaxRetries sets how many stall reclaims a job survives before it fails.
func MaxRetries(n int) Option {
	return queue.MaxRetries(n)
}

// DoneRetention sets how long completed jobs are kept.
func DoneRetention(d time.Duration) Option {
	return queue.DoneRetention(d)
}

// FailedRetention sets how long failed jobs are kept.
func FailedRetention(d time.Duration) Option {
	return queue.FailedRetention(d)
}

// WithCodec sets the payload codec.
func WithCodec(c Codec) Option {
	return queue.WithCodec(c)
}

// JSON is the default codec.
func JSON() Codec { return codec.JSON{} }

// Msgpack encodes payloads as MessagePack.
func Msgpack() Codec { return codec.Msgpack{} }

// Worker option functions

// WorkerQueue restricts the worker to the named queues.
func WorkerQueue(names ...string) WorkerOption {
	return worker.WorkerQueue(names...)
}

// Concurrency sets how many jobs a worker runs at once.
func Concurrency(n int) WorkerOption {
	return worker.Concurrency(n)
}

// PollInterval sets how often an idle worker looks for work.
func PollInterval(d time.Duration) WorkerOption {
	return worker.PollInterval(d)
}

// WithMaintenance runs a full sweep on the given schedule.
func WithMaintenance(s Schedule) WorkerOption {
	return worker.WithMaintenance(s)
}

// Schedule functions

// Every creates a schedule that fires at fixed intervals.
func Every(d time.Duration) Schedule {
	return schedule.Every(d)
}

// Cron creates a schedule from a cron expression. It panics on a bad expression.
func Cron(expr string) Schedule {
	return schedule.Cron(expr)
}

// ParseCron creates a schedule from a cron expression.
func ParseCron(expr string) (Schedule, error) {
	return schedule.ParseCron(expr)
}

// HandleFromContext returns the claimed job inside a worker handler, or nil.
func HandleFromContext(ctx context.Context) *Handle {
	return jobctx.HandleFromContext(ctx)
}

// JobIDFromContext returns the id of the job being handled, or 0.
func JobIDFromContext(ctx context.Context) int64 {
	return jobctx.JobIDFromContext(ctx)
}
