package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/schorsch3000/squeuelite/pkg/codec"
	"github.com/schorsch3000/squeuelite/pkg/core"
)

// reporter is the part of Queue a Handle may call back into.
type reporter interface {
	Heartbeat(ctx context.Context, jobID int64) (bool, error)
	completeEncoded(ctx context.Context, jobID int64, output []byte) error
}

// Handle is a claimed job. It is only created by Queue.Claim.
type Handle struct {
	id         int64
	queue      string
	retryCount int
	raw        []byte
	input      any
	codec      codec.Codec
	reporter   reporter
}

func newHandle(job *core.Job, c codec.Codec, r reporter, logger *slog.Logger) *Handle {
	h := &Handle{
		id:         job.ID,
		queue:      job.Queue,
		retryCount: job.RetryCount,
		raw:        job.Input,
		codec:      c,
		reporter:   r,
	}
	if err := c.Unmarshal(job.Input, &h.input); err != nil {
		logger.Warn("job input does not decode", "job_id", job.ID, "codec", c.Name(), "error", err)
		h.input = nil
	}
	return h
}

// ID returns the job id.
func (h *Handle) ID() int64 { return h.id }

// Queue returns the queue name the job was enqueued on.
func (h *Handle) Queue() string { return h.queue }

// RetryCount returns how many times the job had stalled before this claim.
func (h *Handle) RetryCount() int { return h.retryCount }

// Input returns the decoded input as a generic value (maps, slices, strings,
// numbers), or nil when it could not be decoded.
func (h *Handle) Input() any { return h.input }

// RawInput returns the encoded input bytes.
func (h *Handle) RawInput() []byte { return h.raw }

// Bind decodes the input into v, which must be a pointer.
func (h *Handle) Bind(v any) error {
	if err := h.codec.Unmarshal(h.raw, v); err != nil {
		return fmt.Errorf("squeuelite: decode input of job %d: %w", h.id, err)
	}
	return nil
}

// Heartbeat renews the lock. It reports false once the job is no longer
// held by anyone; the caller should stop working on it.
func (h *Handle) Heartbeat(ctx context.Context) (bool, error) {
	return h.reporter.Heartbeat(ctx, h.id)
}

// Complete encodes result and marks the job Done.
func (h *Handle) Complete(ctx context.Context, result any) error {
	data, err := h.codec.Marshal(result)
	if err != nil {
		return fmt.Errorf("squeuelite: failed to encode output: %w", err)
	}
	return h.reporter.completeEncoded(ctx, h.id, data)
}
