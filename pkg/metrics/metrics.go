// Package metrics exports queue activity as Prometheus metrics.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/schorsch3000/squeuelite/pkg/core"
	"github.com/schorsch3000/squeuelite/pkg/queue"
)

// Collector subscribes to queue events and periodically snapshots queue depth.
type Collector struct {
	queue     *queue.Queue
	namespace string
	interval  time.Duration

	enqueued       *prometheus.CounterVec
	claimed        *prometheus.CounterVec
	attemptsFailed *prometheus.CounterVec
	completed      prometheus.Counter
	deleted        prometheus.Counter
	swept          *prometheus.CounterVec
	readyJobs      *prometheus.GaugeVec
	jobsByStatus   *prometheus.GaugeVec

	// ready is closed once the collector has subscribed to events.
	ready     chan struct{}
	readyOnce sync.Once
}

// Option configures the Collector.
type Option interface {
	apply(*Collector)
}

type optionFunc func(*Collector)

func (f optionFunc) apply(c *Collector) { f(c) }

// WithRefreshInterval sets how often queue depth gauges are refreshed.
func WithRefreshInterval(d time.Duration) Option {
	return optionFunc(func(c *Collector) {
		c.interval = d
	})
}

// WithNamespace sets the metric name prefix. Default "squeuelite".
func WithNamespace(ns string) Option {
	return optionFunc(func(c *Collector) {
		c.namespace = ns
	})
}

// NewCollector creates a Collector for q. Call Register, then Start.
func NewCollector(q *queue.Queue, opts ...Option) *Collector {
	c := &Collector{
		queue:     q,
		namespace: "squeuelite",
		interval:  15 * time.Second,
		ready:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt.apply(c)
	}

	c.enqueued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      "jobs_enqueued_total",
		Help:      "Jobs added to the queue.",
	}, []string{"queue"})
	c.claimed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      "jobs_claimed_total",
		Help:      "Jobs locked by a worker, including reclaimed ones.",
	}, []string{"queue"})
	c.attemptsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      "job_attempts_failed_total",
		Help:      "Handler runs that returned an error or panicked.",
	}, []string{"queue"})
	c.completed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      "jobs_completed_total",
		Help:      "Jobs marked done.",
	})
	c.deleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      "jobs_deleted_total",
		Help:      "Jobs removed explicitly.",
	})
	c.swept = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      "jobs_swept_total",
		Help:      "Rows changed by maintenance, by action.",
	}, []string{"action"})
	c.readyJobs = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Name:      "ready_jobs",
		Help:      "Jobs waiting to be claimed, per queue.",
	}, []string{"queue"})
	c.jobsByStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Name:      "jobs",
		Help:      "Jobs in the table, per status.",
	}, []string{"status"})

	return c
}

// Register registers every metric with reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, m := range []prometheus.Collector{
		c.enqueued, c.claimed, c.attemptsFailed, c.completed,
		c.deleted, c.swept, c.readyJobs, c.jobsByStatus,
	} {
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// WaitReady blocks until the collector has subscribed to events.
func (c *Collector) WaitReady() {
	<-c.ready
}

// Start begins the event listener and periodic refresh ticker.
// Blocks until ctx is cancelled.
func (c *Collector) Start(ctx context.Context) {
	events := c.queue.Events()
	defer c.queue.Unsubscribe(events)

	c.readyOnce.Do(func() { close(c.ready) })

	_ = c.Refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-events:
			c.handleEvent(e)
		case <-ticker.C:
			_ = c.Refresh(ctx)
		}
	}
}

func (c *Collector) handleEvent(e core.Event) {
	switch ev := e.(type) {
	case *core.JobEnqueued:
		c.enqueued.WithLabelValues(ev.Job.Queue).Inc()
	case *core.JobClaimed:
		c.claimed.WithLabelValues(ev.Job.Queue).Inc()
	case *core.JobAttemptFailed:
		c.attemptsFailed.WithLabelValues(ev.Queue).Inc()
	case *core.JobCompleted:
		c.completed.Inc()
	case *core.JobDeleted:
		c.deleted.Inc()
	case *core.QueueSwept:
		c.addSwept("done_purged", ev.Result.DonePurged)
		c.addSwept("failed_purged", ev.Result.FailedPurged)
		c.addSwept("reclaimed", ev.Result.Reclaimed)
		c.addSwept("failed", ev.Result.Failed)
	}
}

func (c *Collector) addSwept(action string, n int64) {
	if n > 0 {
		c.swept.WithLabelValues(action).Add(float64(n))
	}
}

// Refresh reloads the depth gauges from storage.
func (c *Collector) Refresh(ctx context.Context) error {
	counts, err := c.queue.QueueCounts(ctx)
	if err != nil {
		return err
	}
	byStatus, err := c.queue.Storage().CountByStatus(ctx)
	if err != nil {
		return err
	}

	c.readyJobs.Reset()
	for name, n := range counts {
		c.readyJobs.WithLabelValues(name).Set(float64(n))
	}
	for _, status := range []core.JobStatus{core.StatusReady, core.StatusLocked, core.StatusDone, core.StatusFailed} {
		c.jobsByStatus.WithLabelValues(string(status)).Set(float64(byStatus[status]))
	}
	return nil
}
