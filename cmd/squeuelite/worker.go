package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/schorsch3000/squeuelite/pkg/metrics"
	"github.com/schorsch3000/squeuelite/pkg/queue"
	"github.com/schorsch3000/squeuelite/pkg/schedule"
	"github.com/schorsch3000/squeuelite/pkg/worker"
)

type workerFlags struct {
	queues      []string
	concurrency int
	poll        time.Duration
	heartbeat   time.Duration
	maintenance string
	id          string
}

func workerCmd(a *app) *cobra.Command {
	var f workerFlags
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run claimed jobs as shell commands until interrupted",
		Long: "Claim jobs and run each job's input with sh -c. The command's stdout " +
			"becomes the job output. A non-zero exit leaves the job locked so it is " +
			"retried after the stall timeout.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runWorker(cmd.Context(), f, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringSliceVarP(&f.queues, "queue", "q", nil, "queues to claim from, all when empty")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "c", 1, "jobs run at once")
	cmd.Flags().DurationVar(&f.poll, "poll", time.Second, "idle poll interval")
	cmd.Flags().DurationVar(&f.heartbeat, "heartbeat", 0, "lock renewal interval, a third of the stall timeout when zero")
	cmd.Flags().StringVar(&f.maintenance, "maintenance", "@every 1m", "cron schedule for maintenance sweeps, empty to disable")
	cmd.Flags().StringVar(&f.id, "id", "", "worker id, random when empty")
	return cmd
}

func (a *app) runWorker(ctx context.Context, f workerFlags, stderr io.Writer) error {
	opts := []worker.WorkerOption{
		worker.WorkerQueue(f.queues...),
		worker.Concurrency(f.concurrency),
		worker.PollInterval(f.poll),
		worker.HeartbeatInterval(f.heartbeat),
		worker.WithLogger(a.logger),
	}
	if f.maintenance != "" {
		sched, err := schedule.ParseCron(f.maintenance)
		if err != nil {
			return fmt.Errorf("maintenance schedule: %w", err)
		}
		opts = append(opts, worker.WithMaintenance(sched))
	}
	if f.id != "" {
		opts = append(opts, worker.WorkerID(f.id))
	}

	w, err := worker.NewWorker(a.queue, shellHandler(stderr), opts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.cfg.MetricsAddr != "" {
		srv, err := a.startMetrics(ctx, a.cfg.MetricsAddr)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	err = w.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// shellHandler runs the job input as a shell command and returns its stdout.
func shellHandler(stderr io.Writer) func(context.Context, *queue.Handle) (string, error) {
	return func(ctx context.Context, h *queue.Handle) (string, error) {
		var command string
		if err := h.Bind(&command); err != nil {
			return "", fmt.Errorf("job input is not a command string: %w", err)
		}

		var stdout bytes.Buffer
		c := exec.CommandContext(ctx, "sh", "-c", command)
		c.Stdout = &stdout
		c.Stderr = stderr
		if err := c.Run(); err != nil {
			return "", fmt.Errorf("command %q: %w", command, err)
		}
		return stdout.String(), nil
	}
}

// startMetrics serves /metrics and /healthz on addr until ctx is cancelled.
func (a *app) startMetrics(ctx context.Context, addr string) (*http.Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(a.queue)
	if err := collector.Register(reg); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	go collector.Start(ctx)
	collector.WaitReady()

	srv := &http.Server{
		Addr:              addr,
		Handler:           metricsRouter(reg, a.queue),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	a.logger.Info("serving metrics", "addr", addr)
	return srv, nil
}

func metricsRouter(gatherer prometheus.Gatherer, q *queue.Queue) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := q.QueueCounts(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}
