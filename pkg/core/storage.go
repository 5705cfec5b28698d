package core

import (
	"context"
	"time"
)

// Storage defines the persistence layer for jobs.
//
// Every method runs in its own transaction; no transaction spans two calls.
type Storage interface {
	// Migrate creates the necessary database tables.
	Migrate(ctx context.Context) error

	// Job lifecycle
	Insert(ctx context.Context, job *Job) error
	Claim(ctx context.Context, req ClaimRequest) (*Job, SweepResult, error)
	Heartbeat(ctx context.Context, jobID int64, now time.Time) (bool, error)
	Complete(ctx context.Context, jobID int64, output []byte) error
	Delete(ctx context.Context, jobID int64) error

	// Maintenance
	Purge(ctx context.Context, doneCutoff, failedCutoff time.Time) (SweepResult, error)
	Sweep(ctx context.Context, req SweepRequest) (SweepResult, error)

	// Queries
	GetJob(ctx context.Context, jobID int64) (*Job, error)
	QueueCounts(ctx context.Context) (map[string]int64, error)
	CountByStatus(ctx context.Context) (map[JobStatus]int64, error)
	ListJobs(ctx context.Context, status JobStatus, limit int) ([]*Job, error)
}
