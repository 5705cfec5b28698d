// Package queue provides the Queue type, the job store every producer and
// worker talks to.
//
// This package includes:
//   - Queue: enqueue, claim, heartbeat, complete, delete and sweep
//   - Handle: a claimed job with its decoded input
//   - Result: the tagged status of a single job
//   - Option: configuration (stall timeout, retry limit, retention, codec)
//   - Event subscription for monitoring
//
// Most users should import the root package github.com/schorsch3000/squeuelite
// which re-exports Queue and all option functions.
package queue
