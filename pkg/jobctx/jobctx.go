// Package jobctx provides public access to job context for handlers.
package jobctx

import (
	"context"

	intctx "github.com/schorsch3000/squeuelite/pkg/internal/context"
	"github.com/schorsch3000/squeuelite/pkg/queue"
)

// HandleFromContext returns the claimed job a handler is running, or nil if
// not in a job handler.
func HandleFromContext(ctx context.Context) *queue.Handle {
	jc := intctx.GetJobContext(ctx)
	if jc == nil {
		return nil
	}
	return jc.Handle
}

// JobIDFromContext returns the current job ID from context, or 0 if not in a job handler.
func JobIDFromContext(ctx context.Context) int64 {
	h := HandleFromContext(ctx)
	if h == nil {
		return 0
	}
	return h.ID()
}

// QueueFromContext returns the queue of the current job, or empty string if
// not in a job handler.
func QueueFromContext(ctx context.Context) string {
	h := HandleFromContext(ctx)
	if h == nil {
		return ""
	}
	return h.Queue()
}

// WorkerIDFromContext returns the ID of the worker running the current job.
func WorkerIDFromContext(ctx context.Context) string {
	jc := intctx.GetJobContext(ctx)
	if jc == nil {
		return ""
	}
	return jc.WorkerID
}

// Heartbeat renews the lock of the current job. Workers already heartbeat
// on a timer; handlers call this around long blocking steps. Outside a job
// handler it reports false.
func Heartbeat(ctx context.Context) (bool, error) {
	h := HandleFromContext(ctx)
	if h == nil {
		return false, nil
	}
	return h.Heartbeat(ctx)
}
