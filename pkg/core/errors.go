package core

import (
	"errors"
)

// Validation errors
var (
	ErrInvalidQueueName = errors.New("squeuelite: invalid queue name")
	ErrQueueNameTooLong = errors.New("squeuelite: queue name too long")
	ErrPayloadTooLarge  = errors.New("squeuelite: job payload exceeds size limit")
)

// Result errors
var (
	ErrNoOutput = errors.New("squeuelite: job has no output")
)

// Configuration errors. Reconfiguration that fails with one of these leaves
// the previous configuration in place.
var (
	ErrInvalidStallTimeout    = errors.New("squeuelite: stall timeout must be at least one second")
	ErrInvalidMaxRetries      = errors.New("squeuelite: max retries must be >= 0")
	ErrInvalidDoneRetention   = errors.New("squeuelite: done retention must be >= 0")
	ErrInvalidFailedRetention = errors.New("squeuelite: failed retention must be >= 0")
	ErrNilStorage             = errors.New("squeuelite: storage is nil")
	ErrNilCodec               = errors.New("squeuelite: codec is nil")
	ErrNilQueue               = errors.New("squeuelite: queue is nil")
	ErrStaticSchedule         = errors.New("squeuelite: maintenance schedule does not advance")
)
