package queue

import (
	"fmt"

	"github.com/schorsch3000/squeuelite/pkg/codec"
	"github.com/schorsch3000/squeuelite/pkg/core"
)

// State is the externally visible state of a job.
type State int

const (
	StateNotFound State = iota // No such job, or it was deleted or purged
	StatePending               // Ready, waiting to be claimed
	StateRunning               // Locked by a worker
	StateDone                  // Completed, output available
	StateFailed                // Retry limit reached
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "not_found"
	}
}

func stateOf(status core.JobStatus) State {
	switch status {
	case core.StatusReady:
		return StatePending
	case core.StatusLocked:
		return StateRunning
	case core.StatusDone:
		return StateDone
	case core.StatusFailed:
		return StateFailed
	default:
		return StateNotFound
	}
}

// Result describes one job as returned by Queue.Status.
type Result struct {
	JobID      int64
	Queue      string
	State      State
	RetryCount int

	// Output is the encoded output; only set when State is StateDone.
	Output []byte

	codec codec.Codec
}

func newResult(jobID int64, job *core.Job, c codec.Codec) *Result {
	r := &Result{JobID: jobID, State: StateNotFound, codec: c}
	if job == nil {
		return r
	}
	r.Queue = job.Queue
	r.State = stateOf(job.Status)
	r.RetryCount = job.RetryCount
	if r.State == StateDone {
		r.Output = job.Output
	}
	return r
}

// Decode decodes the output into v. It returns core.ErrNoOutput unless the
// job is Done.
func (r *Result) Decode(v any) error {
	if r.State != StateDone {
		return core.ErrNoOutput
	}
	if err := r.codec.Unmarshal(r.Output, v); err != nil {
		return fmt.Errorf("squeuelite: decode output of job %d: %w", r.JobID, err)
	}
	return nil
}
