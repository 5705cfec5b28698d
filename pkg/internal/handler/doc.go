// Package handler provides internal reflection-based handler execution.
//
// This package is internal and should not be imported directly.
// It turns a plain Go function into something a worker can run against a
// claimed job: the job input is decoded into the function's argument type
// and the function's first return value becomes the job output.
package handler
