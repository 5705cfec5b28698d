package core

import "time"

// Event is the interface for all queue events.
type Event interface {
	eventMarker()
}

// JobEnqueued is emitted after a job row has been committed.
type JobEnqueued struct {
	Job       *Job
	Timestamp time.Time
}

func (*JobEnqueued) eventMarker() {}

// JobClaimed is emitted when a worker locks a job.
type JobClaimed struct {
	Job       *Job
	Timestamp time.Time
}

func (*JobClaimed) eventMarker() {}

// JobCompleted is emitted when a job is marked done.
type JobCompleted struct {
	JobID     int64
	Timestamp time.Time
}

func (*JobCompleted) eventMarker() {}

// JobAttemptFailed is emitted by a worker when a handler returns an error
// or panics. The job stays Locked until the stall timeout returns it to Ready.
type JobAttemptFailed struct {
	JobID      int64
	Queue      string
	RetryCount int
	Error      error
	Timestamp  time.Time
}

func (*JobAttemptFailed) eventMarker() {}

// JobDeleted is emitted when a job row is explicitly removed.
type JobDeleted struct {
	JobID     int64
	Timestamp time.Time
}

func (*JobDeleted) eventMarker() {}

// QueueSwept is emitted whenever a maintenance pass changed at least one row.
type QueueSwept struct {
	Result    SweepResult
	Timestamp time.Time
}

func (*QueueSwept) eventMarker() {}
