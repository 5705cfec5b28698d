package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/schorsch3000/squeuelite/pkg/core"
	"github.com/schorsch3000/squeuelite/pkg/queue"
)

var (
	errLockLost = errors.New("lock lost")
	errNotReady = errors.New("job is not done")
)

// ── enqueue ───────────────────────────────────────────────────────────────────

func enqueueCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "enqueue <queue> <input>",
		Short: "Add a job and print its id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := parseValue(args[1], asJSON)
			if err != nil {
				return err
			}
			id, err := a.queue.Enqueue(cmd.Context(), args[0], input)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "parse the input as a JSON value instead of a string")
	return cmd
}

// ── claim ─────────────────────────────────────────────────────────────────────

type claimedJob struct {
	ID         int64  `json:"id"`
	Queue      string `json:"queue"`
	RetryCount int    `json:"retry_count"`
	Input      any    `json:"input"`
}

func claimCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "claim [queue...]",
		Short: "Lock the oldest ready job and print it as JSON",
		Long:  "Lock the oldest ready job, optionally limited to the given queues, and print it as JSON. Prints nothing when no job is available.",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.queue.Claim(cmd.Context(), args...)
			if err != nil {
				return err
			}
			if h == nil {
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), claimedJob{
				ID:         h.ID(),
				Queue:      h.Queue(),
				RetryCount: h.RetryCount(),
				Input:      h.Input(),
			})
		},
	}
}

// ── heartbeat ─────────────────────────────────────────────────────────────────

func heartbeatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "heartbeat <id>",
		Short: "Renew the lock on a claimed job",
		Long:  "Renew the lock on a claimed job. Fails when the job is no longer locked.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ok, err := a.queue.Heartbeat(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("job %d: %w", id, errLockLost)
			}
			return nil
		},
	}
}

// ── complete ──────────────────────────────────────────────────────────────────

func completeCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "complete <id> <output>",
		Short: "Store a job's output and mark it done",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			output, err := parseValue(args[1], asJSON)
			if err != nil {
				return err
			}
			return a.queue.Complete(cmd.Context(), id, output)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "parse the output as a JSON value instead of a string")
	return cmd
}

// ── result ────────────────────────────────────────────────────────────────────

func resultCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "result <id>",
		Short: "Print the output of a done job as JSON",
		Long:  "Print the output of a done job as JSON. Fails for missing, pending, running and failed jobs.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var out any
			ready, err := a.queue.IsReady(cmd.Context(), id, &out)
			if err != nil {
				return err
			}
			if !ready {
				return fmt.Errorf("job %d: %w", id, errNotReady)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

// ── status ────────────────────────────────────────────────────────────────────

type jobStatus struct {
	ID         int64  `json:"id"`
	State      string `json:"state"`
	Queue      string `json:"queue,omitempty"`
	RetryCount int    `json:"retry_count"`
	Output     any    `json:"output,omitempty"`
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Print the state of a job as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := a.queue.Status(cmd.Context(), id)
			if err != nil {
				return err
			}
			st := jobStatus{
				ID:         res.JobID,
				State:      res.State.String(),
				Queue:      res.Queue,
				RetryCount: res.RetryCount,
			}
			if res.State == queue.StateDone {
				if err := res.Decode(&st.Output); err != nil {
					return err
				}
			}
			return writeJSON(cmd.OutOrStdout(), st)
		},
	}
}

// ── delete ────────────────────────────────────────────────────────────────────

func deleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a job in any state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.queue.Delete(cmd.Context(), id)
		},
	}
}

// ── queues ────────────────────────────────────────────────────────────────────

func queuesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "queues",
		Short: "Print the number of ready jobs per queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			counts, err := a.queue.QueueCounts(cmd.Context())
			if err != nil {
				return err
			}
			names := make([]string, 0, len(counts))
			for name := range counts {
				names = append(names, name)
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range names {
				fmt.Fprintf(w, "%s\t%d\n", name, counts[name])
			}
			return w.Flush()
		},
	}
}

// ── list ──────────────────────────────────────────────────────────────────────

func listCmd(a *app) *cobra.Command {
	var (
		status string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print jobs, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := core.JobStatus(status)
			if st != "" && !st.Valid() {
				return fmt.Errorf("unknown status %q", status)
			}
			jobs, err := a.store.ListJobs(cmd.Context(), st, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tQUEUE\tSTATUS\tRETRIES\tCREATED")
			for _, job := range jobs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
					job.ID, job.Queue, job.Status, job.RetryCount, job.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only list jobs in this status (ready, locked, done, failed)")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of jobs to list, 0 for all")
	return cmd
}

// ── sweep ─────────────────────────────────────────────────────────────────────

func sweepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Purge expired jobs and reclaim stalled ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.queue.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged=%d reclaimed=%d failed=%d\n",
				res.Purged(), res.Reclaimed, res.Failed)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid job id %q", s)
	}
	return id, nil
}

func parseValue(s string, asJSON bool) (any, error) {
	if !asJSON {
		return s, nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("invalid JSON value: %w", err)
	}
	return v, nil
}

func writeJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
