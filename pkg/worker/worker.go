package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/schorsch3000/squeuelite/pkg/core"
	intctx "github.com/schorsch3000/squeuelite/pkg/internal/context"
	"github.com/schorsch3000/squeuelite/pkg/internal/handler"
	"github.com/schorsch3000/squeuelite/pkg/queue"
	"github.com/schorsch3000/squeuelite/pkg/security"
)

// errLockLost cancels a running handler whose job is no longer Locked.
var errLockLost = errors.New("squeuelite: job lock lost")

// Worker claims jobs from a queue and runs a handler for each of them.
//
// The handler is any function accepted by NewWorker. A handler that returns
// an error, panics or loses its lock leaves the job to the stall timeout;
// the job is retried until the queue's retry limit fails it.
type Worker struct {
	queue   *queue.Queue
	handler *handler.Handler
	config  WorkerConfig
	logger  *slog.Logger

	wg   sync.WaitGroup
	sem  chan struct{}
	wake chan struct{}

	completed atomic.Int64
	failed    atomic.Int64
}

// NewWorker creates a worker running fn for every claimed job. fn must be
// one of
//
//	func(ctx context.Context, h *queue.Handle) (R, error)
//	func(ctx context.Context, args T) (R, error)
//	func(ctx context.Context, args T) error
//
// Job input is decoded into T with the queue's codec; R is encoded as the
// job output.
func NewWorker(q *queue.Queue, fn any, opts ...WorkerOption) (*Worker, error) {
	if q == nil {
		return nil, core.ErrNilQueue
	}
	h, err := handler.NewHandler(fn)
	if err != nil {
		return nil, fmt.Errorf("squeuelite: worker handler: %w", err)
	}

	config := WorkerConfig{
		Concurrency:  1,
		PollInterval: time.Second,
		WorkerID:     uuid.New().String(),
	}
	for _, opt := range opts {
		opt.ApplyWorker(&config)
	}

	if err := security.ValidateQueueNames(config.Queues); err != nil {
		return nil, err
	}
	if config.Maintenance != nil {
		now := time.Now()
		if !config.Maintenance.Next(now).After(now) {
			return nil, core.ErrStaticSchedule
		}
	}
	config.Concurrency = security.ClampConcurrency(config.Concurrency)
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.StorageRetry == nil {
		defaultCfg := DefaultRetryConfig()
		config.StorageRetry = &defaultCfg
	}
	if config.ClaimRetry == nil {
		claimCfg := defaultClaimRetry()
		config.ClaimRetry = &claimCfg
	}

	return &Worker{
		queue:   q,
		handler: h,
		config:  config,
		logger:  config.Logger.With("worker_id", config.WorkerID),
		sem:     make(chan struct{}, config.Concurrency),
		wake:    make(chan struct{}, 1),
	}, nil
}

// ID returns the worker ID.
func (w *Worker) ID() string { return w.config.WorkerID }

// Completed returns the number of jobs this worker completed.
func (w *Worker) Completed() int64 { return w.completed.Load() }

// Failed returns the number of handler runs that ended in an error.
func (w *Worker) Failed() int64 { return w.failed.Load() }

// Start begins processing jobs. Blocks until ctx is cancelled, then waits
// for running handlers to return.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker started",
		"queues", w.config.Queues,
		"concurrency", w.config.Concurrency,
		"poll_interval", w.config.PollInterval)

	if w.config.Maintenance != nil {
		w.wg.Add(1)
		go w.runMaintenance(ctx)
	}

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		w.fill(ctx)

		select {
		case <-ctx.Done():
			w.wg.Wait()
			w.logger.Info("worker stopped", "completed", w.Completed(), "failed", w.Failed())
			return ctx.Err()
		case <-ticker.C:
		case <-w.wake:
		}
	}
}

// fill claims jobs until every slot is busy or the queue has nothing left.
func (w *Worker) fill(ctx context.Context) {
	for ctx.Err() == nil {
		select {
		case w.sem <- struct{}{}:
		default:
			return
		}

		h, err := w.claimWithRetry(ctx)
		if err != nil || h == nil {
			<-w.sem
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				w.logger.Error("failed to claim after retries", "error", err)
			}
			return
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer w.release()
			w.processJob(ctx, h)
		}()
	}
}

func (w *Worker) release() {
	<-w.sem
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// claimWithRetry attempts to claim a job with exponential backoff on failure.
func (w *Worker) claimWithRetry(ctx context.Context) (*queue.Handle, error) {
	var h *queue.Handle
	err := retryWithBackoff(ctx, *w.config.ClaimRetry, func() error {
		var claimErr error
		h, claimErr = w.queue.Claim(ctx, w.config.Queues...)
		return claimErr
	})
	return h, err
}

func (w *Worker) processJob(ctx context.Context, h *queue.Handle) {
	startTime := time.Now()
	logger := w.logger.With("job_id", h.ID(), "queue", h.Queue())

	jobCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	jobCtx = intctx.WithJobContext(jobCtx, &intctx.JobContext{
		Handle:   h,
		WorkerID: w.config.WorkerID,
	})

	heartbeatDone := make(chan struct{})
	go func() {
		defer close(heartbeatDone)
		w.runHeartbeat(jobCtx, h, cancel, logger)
	}()

	output, err := w.executeHandler(jobCtx, h)

	lockLost := errors.Is(context.Cause(jobCtx), errLockLost)
	cancel(nil)
	<-heartbeatDone

	if lockLost {
		w.failed.Add(1)
		logger.Warn("job abandoned after losing its lock", "duration", time.Since(startTime))
		return
	}
	if err != nil && ctx.Err() != nil {
		logger.Info("job interrupted by shutdown", "error", err)
		return
	}
	if err != nil {
		w.failed.Add(1)
		logger.Error("job handler failed", "error", err, "retry_count", h.RetryCount(), "duration", time.Since(startTime))
		w.queue.Emit(&core.JobAttemptFailed{
			JobID:      h.ID(),
			Queue:      h.Queue(),
			RetryCount: h.RetryCount(),
			Error:      err,
			Timestamp:  time.Now(),
		})
		return
	}

	// The handler finished; record it even if the worker is shutting down.
	completeCtx := context.WithoutCancel(ctx)
	completeErr := retryWithBackoff(completeCtx, *w.config.StorageRetry, func() error {
		return h.Complete(completeCtx, output)
	})
	if completeErr != nil {
		w.failed.Add(1)
		logger.Error("failed to complete job after retries", "error", completeErr)
		return
	}

	w.completed.Add(1)
	logger.Debug("job completed", "duration", time.Since(startTime))
}

func (w *Worker) heartbeatInterval() time.Duration {
	if w.config.HeartbeatInterval > 0 {
		return w.config.HeartbeatInterval
	}
	return w.queue.Config().StallTimeout / 3
}

// runHeartbeat renews the job lock until ctx ends. When the job turns out to
// be no longer Locked it cancels the handler with errLockLost.
func (w *Worker) runHeartbeat(ctx context.Context, h *queue.Handle, cancel context.CancelCauseFunc, logger *slog.Logger) {
	ticker := time.NewTicker(w.heartbeatInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var renewed bool
			err := retryWithBackoff(ctx, *w.config.StorageRetry, func() error {
				var hbErr error
				renewed, hbErr = h.Heartbeat(ctx)
				return hbErr
			})
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				logger.Warn("heartbeat failed after retries", "error", err)
			case !renewed:
				logger.Warn("job is no longer locked, cancelling handler")
				cancel(errLockLost)
				return
			default:
				logger.Debug("heartbeat sent")
			}
		}
	}
}

func (w *Worker) executeHandler(ctx context.Context, h *queue.Handle) (output any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.handler.Execute(ctx, h)
}

// runMaintenance sweeps the queue on the configured schedule.
func (w *Worker) runMaintenance(ctx context.Context) {
	defer w.wg.Done()

	for {
		now := time.Now()
		next := w.config.Maintenance.Next(now)
		if !next.After(now) {
			w.logger.Error("maintenance schedule has no future run, stopping sweeps", "next", next)
			return
		}
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			res, err := w.queue.Sweep(ctx)
			if err != nil {
				if ctx.Err() == nil {
					w.logger.Error("maintenance sweep failed", "error", err)
				}
				continue
			}
			w.logger.Debug("maintenance sweep finished",
				"done_purged", res.DonePurged,
				"failed_purged", res.FailedPurged,
				"reclaimed", res.Reclaimed,
				"failed", res.Failed)
		}
	}
}
