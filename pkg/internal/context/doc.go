// Package context provides internal context helpers for job execution.
//
// This package is internal and should not be imported directly.
// It carries the claimed job and the worker running it through a
// handler's context.Context.
package context
