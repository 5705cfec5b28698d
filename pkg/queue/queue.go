package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schorsch3000/squeuelite/pkg/codec"
	"github.com/schorsch3000/squeuelite/pkg/core"
	"github.com/schorsch3000/squeuelite/pkg/security"
)

// Queue is the job store. All state lives in storage; a Queue only holds
// its configuration and event subscribers, so any number of Queues in any
// number of processes may share one database.
type Queue struct {
	storage core.Storage
	opts    atomic.Pointer[Options]

	mu        sync.RWMutex
	eventSubs []chan core.Event
}

// New creates a Queue on top of s. The storage must already be migrated.
func New(s core.Storage, opts ...Option) (*Queue, error) {
	if s == nil {
		return nil, core.ErrNilStorage
	}
	o := NewOptions()
	for _, opt := range opts {
		opt.Apply(o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	q := &Queue{storage: s}
	q.opts.Store(o)
	return q, nil
}

// Storage returns the underlying storage.
func (q *Queue) Storage() core.Storage {
	return q.storage
}

// Config returns the configuration currently in effect.
func (q *Queue) Config() Config {
	return q.opts.Load().Config
}

// Codec returns the payload codec.
func (q *Queue) Codec() codec.Codec {
	return q.opts.Load().Codec
}

// Reconfigure applies opts on top of the current options. When the result
// fails validation the current options stay in effect and the error is
// returned. Operations already running finish with the options they started
// with.
func (q *Queue) Reconfigure(opts ...Option) error {
	for {
		cur := q.opts.Load()
		next := *cur
		for _, opt := range opts {
			opt.Apply(&next)
		}
		if err := next.validate(); err != nil {
			return err
		}
		if q.opts.CompareAndSwap(cur, &next) {
			next.Logger.Debug("queue reconfigured",
				"stall_timeout", next.Config.StallTimeout,
				"max_retries", next.Config.MaxRetries,
				"done_retention", next.Config.DoneRetention,
				"failed_retention", next.Config.FailedRetention,
				"codec", next.Codec.Name())
			return nil
		}
	}
}

func (q *Queue) now(o *Options) time.Time {
	return o.Clock().UTC()
}

// Enqueue encodes input and adds it as a Ready job on queueName.
func (q *Queue) Enqueue(ctx context.Context, queueName string, input any) (int64, error) {
	o := q.opts.Load()

	if err := security.ValidateQueueName(queueName); err != nil {
		return 0, err
	}

	data, err := o.Codec.Marshal(input)
	if err != nil {
		return 0, fmt.Errorf("squeuelite: failed to encode input: %w", err)
	}
	if err := security.ValidatePayload(data); err != nil {
		return 0, err
	}

	now := q.now(o)
	job := &core.Job{
		Queue:     queueName,
		Input:     data,
		Status:    core.StatusReady,
		CreatedAt: now,
	}
	if err := q.storage.Insert(ctx, job); err != nil {
		return 0, err
	}

	o.Logger.Debug("job enqueued", "job_id", job.ID, "queue", queueName, "size", len(data))
	q.Emit(&core.JobEnqueued{Job: job, Timestamp: now})
	return job.ID, nil
}

// QueueCounts returns the number of Ready jobs per queue. Queues without
// Ready jobs are absent from the map.
func (q *Queue) QueueCounts(ctx context.Context) (map[string]int64, error) {
	return q.storage.QueueCounts(ctx)
}

// Claim locks the oldest Ready job whose queue is one of queues, or the
// oldest Ready job overall when no queue is given. It returns nil, nil when
// nothing is available.
//
// Expired Done and Failed jobs are purged first. Stalled jobs are then
// returned to Ready and exhausted ones failed in the same transaction that
// picks the job.
func (q *Queue) Claim(ctx context.Context, queues ...string) (*Handle, error) {
	if err := security.ValidateQueueNames(queues); err != nil {
		return nil, err
	}

	o := q.opts.Load()
	now := q.now(o)
	req := o.Config.sweepRequest(now)

	swept, err := q.storage.Purge(ctx, req.DoneCutoff, req.FailedCutoff)
	if err != nil {
		return nil, err
	}

	job, reconciled, err := q.storage.Claim(ctx, o.Config.claimRequest(now, queues))
	if err != nil {
		return nil, err
	}
	swept.Add(reconciled)
	q.reportSweep(o, swept, now)

	if job == nil {
		return nil, nil
	}

	o.Logger.Debug("job claimed", "job_id", job.ID, "queue", job.Queue, "retry_count", job.RetryCount)
	q.Emit(&core.JobClaimed{Job: job, Timestamp: now})
	return newHandle(job, o.Codec, q, o.Logger), nil
}

// Heartbeat renews the lock of a Locked job. It reports false when the job
// is no longer Locked, which means it was reclaimed, completed, failed or
// deleted and the caller should stop working on it.
func (q *Queue) Heartbeat(ctx context.Context, jobID int64) (bool, error) {
	o := q.opts.Load()
	return q.storage.Heartbeat(ctx, jobID, q.now(o))
}

// Complete encodes output and marks the job Done. It does not check that
// the caller still holds the lock.
func (q *Queue) Complete(ctx context.Context, jobID int64, output any) error {
	data, err := q.Codec().Marshal(output)
	if err != nil {
		return fmt.Errorf("squeuelite: failed to encode output: %w", err)
	}
	return q.completeEncoded(ctx, jobID, data)
}

func (q *Queue) completeEncoded(ctx context.Context, jobID int64, output []byte) error {
	if err := security.ValidatePayload(output); err != nil {
		return err
	}
	if err := q.storage.Complete(ctx, jobID, output); err != nil {
		return err
	}

	o := q.opts.Load()
	o.Logger.Debug("job completed", "job_id", jobID, "size", len(output))
	q.Emit(&core.JobCompleted{JobID: jobID, Timestamp: q.now(o)})
	return nil
}

// Delete removes a job in any state. Deleting a missing job is not an error.
func (q *Queue) Delete(ctx context.Context, jobID int64) error {
	if err := q.storage.Delete(ctx, jobID); err != nil {
		return err
	}

	o := q.opts.Load()
	o.Logger.Debug("job deleted", "job_id", jobID)
	q.Emit(&core.JobDeleted{JobID: jobID, Timestamp: q.now(o)})
	return nil
}

// Sweep runs a full maintenance pass: retention purge, stall reclaim and
// retry-limit promotion.
func (q *Queue) Sweep(ctx context.Context) (core.SweepResult, error) {
	o := q.opts.Load()
	now := q.now(o)

	res, err := q.storage.Sweep(ctx, o.Config.sweepRequest(now))
	if err != nil {
		return core.SweepResult{}, err
	}
	q.reportSweep(o, res, now)
	return res, nil
}

func (q *Queue) reportSweep(o *Options, res core.SweepResult, now time.Time) {
	if res.Empty() {
		return
	}
	if res.Purged() > 0 {
		o.Logger.Debug("expired jobs purged", "done", res.DonePurged, "failed", res.FailedPurged)
	}
	if res.Reclaimed > 0 {
		o.Logger.Info("stalled jobs reclaimed", "count", res.Reclaimed)
	}
	if res.Failed > 0 {
		o.Logger.Info("jobs failed after retry limit", "count", res.Failed, "max_retries", o.Config.MaxRetries)
	}
	q.Emit(&core.QueueSwept{Result: res, Timestamp: now})
}

// IsReady runs a maintenance pass and reports whether the job is Done. When
// it is and out is non-nil the output is decoded into out. Missing, pending,
// running and failed jobs all report false; use Status to tell them apart.
func (q *Queue) IsReady(ctx context.Context, jobID int64, out any) (bool, error) {
	res, err := q.Status(ctx, jobID)
	if err != nil {
		return false, err
	}
	if res.State != StateDone {
		return false, nil
	}
	if out != nil {
		if err := res.Decode(out); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Status runs a maintenance pass and reports the state of the job.
func (q *Queue) Status(ctx context.Context, jobID int64) (*Result, error) {
	if _, err := q.Sweep(ctx); err != nil {
		return nil, err
	}

	job, err := q.storage.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return newResult(jobID, job, q.Codec()), nil
}

// Events returns a channel for receiving queue events.
// The caller must call Unsubscribe when done to prevent resource leaks.
func (q *Queue) Events() <-chan core.Event {
	ch := make(chan core.Event, 100)
	q.mu.Lock()
	q.eventSubs = append(q.eventSubs, ch)
	q.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel created by Events().
// The channel is not closed. After Unsubscribe returns, no further events
// will be sent to it.
func (q *Queue) Unsubscribe(ch <-chan core.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, sub := range q.eventSubs {
		if sub == ch {
			q.eventSubs = append(q.eventSubs[:i], q.eventSubs[i+1:]...)
			return
		}
	}
}

// Emit emits an event to all subscribers. Slow subscribers miss events
// rather than block the queue.
func (q *Queue) Emit(e core.Event) {
	q.mu.RLock()
	subs := make([]chan core.Event, len(q.eventSubs))
	copy(subs, q.eventSubs)
	q.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
		}
	}
}
