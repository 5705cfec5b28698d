// Package worker provides the Worker type for job processing.
//
// This package includes:
//   - Worker: polls the queue, runs a handler per claimed job and completes it
//   - WorkerOption: configuration options for workers
//   - Heartbeats that keep a running job's lock alive
//   - A maintenance loop that sweeps the queue on a schedule
//
// Most users should import the root package github.com/schorsch3000/squeuelite
// which re-exports these types.
package worker
