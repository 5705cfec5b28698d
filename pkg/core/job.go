// Package core provides the domain models and interfaces for the squeuelite packages.
package core

import (
	"time"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	StatusReady  JobStatus = "ready"  // Eligible for claiming
	StatusLocked JobStatus = "locked" // Claimed by a worker, carries LockedAt
	StatusDone   JobStatus = "done"   // Completed, output retained until purge
	StatusFailed JobStatus = "failed" // Retry limit reached, retained until purge
)

// Valid reports whether s is one of the four lifecycle states.
func (s JobStatus) Valid() bool {
	switch s {
	case StatusReady, StatusLocked, StatusDone, StatusFailed:
		return true
	}
	return false
}

// Job is one row of the queue table.
type Job struct {
	ID         int64      `gorm:"column:job_id;primaryKey;autoIncrement"`
	Queue      string     `gorm:"column:queue_name;size:255;not null;index:idx_squeuelite_claim,priority:2"`
	Input      []byte     `gorm:"column:job_input"`
	Output     []byte     `gorm:"column:job_output"`
	Status     JobStatus  `gorm:"column:status;size:20;not null;default:'ready';index:idx_squeuelite_claim,priority:1"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null;index:idx_squeuelite_claim,priority:3"`
	LockedAt   *time.Time `gorm:"column:locked_at;index"` // Non-nil iff Status is StatusLocked
	RetryCount int        `gorm:"column:retry_count;not null;default:0"`
}

// TableName pins the table name so it does not depend on GORM's pluralizer.
func (Job) TableName() string { return "squeuelite_jobs" }

// ClaimRequest carries everything the storage layer needs to reconcile
// stalled rows and lock the next job in a single transaction.
type ClaimRequest struct {
	// Queues restricts the claim to these queue names. Empty means any queue.
	Queues []string
	// Now is written to locked_at of the claimed row.
	Now time.Time
	// StallCutoff: Locked rows with locked_at before it return to Ready.
	StallCutoff time.Time
	// MaxRetries: rows with retry_count >= MaxRetries become Failed.
	MaxRetries int
}

// SweepRequest configures a full maintenance pass.
type SweepRequest struct {
	DoneCutoff   time.Time
	FailedCutoff time.Time
	StallCutoff  time.Time
	MaxRetries   int
}

// SweepResult reports how many rows each maintenance step touched.
type SweepResult struct {
	DonePurged   int64
	FailedPurged int64
	Reclaimed    int64
	Failed       int64
}

// Purged returns the total number of rows deleted by retention.
func (r SweepResult) Purged() int64 {
	return r.DonePurged + r.FailedPurged
}

// Empty reports whether the pass changed nothing.
func (r SweepResult) Empty() bool {
	return r.Purged() == 0 && r.Reclaimed == 0 && r.Failed == 0
}

// Add accumulates another result into r.
func (r *SweepResult) Add(o SweepResult) {
	r.DonePurged += o.DonePurged
	r.FailedPurged += o.FailedPurged
	r.Reclaimed += o.Reclaimed
	r.Failed += o.Failed
}
