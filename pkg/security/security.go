// Package security provides validation and limits for the squeuelite packages.
package security

import (
	"github.com/schorsch3000/squeuelite/pkg/core"
)

// Security limits and configuration
const (
	// MaxQueueNameLength is the maximum length for queue names
	MaxQueueNameLength = 255

	// MaxPayloadSize is the maximum size in bytes for an encoded job input or output (1MB)
	MaxPayloadSize = 1 << 20

	// MaxConcurrency is the hard limit for worker concurrency
	MaxConcurrency = 1000
)

// ValidateQueueName validates a queue name. Any non-empty string that fits
// the queue_name column is accepted.
func ValidateQueueName(name string) error {
	if name == "" {
		return core.ErrInvalidQueueName
	}
	if len(name) > MaxQueueNameLength {
		return core.ErrQueueNameTooLong
	}
	return nil
}

// ValidateQueueNames validates every name in a claim filter.
func ValidateQueueNames(names []string) error {
	for _, name := range names {
		if err := ValidateQueueName(name); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePayload enforces MaxPayloadSize on an encoded payload
func ValidatePayload(b []byte) error {
	if len(b) > MaxPayloadSize {
		return core.ErrPayloadTooLarge
	}
	return nil
}

// ClampConcurrency ensures concurrency is within limits
func ClampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}
