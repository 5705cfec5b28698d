// Command squeuelite manages a persistent work queue from the shell.
//
// Subcommands:
//
//	enqueue    add a job
//	claim      lock the oldest ready job and print it
//	heartbeat  renew the lock on a claimed job
//	complete   store a job's output and mark it done
//	result     print the output of a done job
//	status     print the state of a job
//	delete     remove a job
//	queues     print ready job counts per queue
//	list       print jobs by status
//	sweep      run a maintenance pass
//	worker     run jobs as shell commands until interrupted
//
// The database and queue settings come from the environment, see
// internal/config.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/schorsch3000/squeuelite/internal/config"
	"github.com/schorsch3000/squeuelite/pkg/queue"
	"github.com/schorsch3000/squeuelite/pkg/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// app holds what every subcommand needs. It is filled in by open before
// the subcommand runs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *storage.GormStorage
	queue  *queue.Queue
}

// run executes one command line and closes the store afterwards, whether
// the command succeeded or not.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "squeuelite",
		Short: "Persistent work queue backed by SQLite",
		// Silence default error printing; main logs it with slog.
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.open,
	}

	root.AddCommand(
		enqueueCmd(a),
		claimCmd(a),
		heartbeatCmd(a),
		completeCmd(a),
		resultCmd(a),
		statusCmd(a),
		deleteCmd(a),
		queuesCmd(a),
		listCmd(a),
		sweepCmd(a),
		workerCmd(a),
	)
	return root
}

func (a *app) open(cmd *cobra.Command, _ []string) error {
	if !needsQueue(cmd) {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg
	a.logger = cfg.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(a.logger)

	store, err := storage.Open(cfg.Database)
	if err != nil {
		return err
	}
	if err := store.Migrate(cmd.Context()); err != nil {
		_ = store.Close()
		return err
	}

	q, err := queue.New(store, cfg.QueueOptions(a.logger)...)
	if err != nil {
		_ = store.Close()
		return err
	}
	a.store = store
	a.queue = q
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// needsQueue is false for cobra's built-in help and completion commands.
func needsQueue(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion":
			return false
		}
	}
	return true
}
