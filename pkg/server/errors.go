package server

import (
	"errors"
	"fmt"
)

// Sentinel errors for configuration and worker failures.
var (
	// ErrNoAddress is returned when a Config is built without a bind address.
	ErrNoAddress = errors.New("server: no bind address")

	// ErrNoHandlerFactory is returned when a Config is built without a
	// handler factory.
	ErrNoHandlerFactory = errors.New("server: nil handler factory")

	// ErrInvalidWorkerCount is returned when a Config requests fewer than
	// one worker.
	ErrInvalidWorkerCount = errors.New("server: worker count must be at least 1")

	// ErrNilResponse is the cause recorded when a handler returns neither
	// a response nor an error.
	ErrNilResponse = errors.New("server: handler returned nil response")
)

// WorkerError wraps a fatal worker failure with the worker's identity.
type WorkerError struct {
	Worker int
	Op     string // operation that failed
	Err    error  // underlying error
}

// Error returns the error message with worker context.
func (e *WorkerError) Error() string {
	return fmt.Sprintf("server: worker %d: %s: %v", e.Worker, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *WorkerError) Unwrap() error {
	return e.Err
}
