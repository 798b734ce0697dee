// Package taskerr provides the structured error taxonomy for the pool and
// scheduler engines: resource exhaustion, post-shutdown submission, and
// invariant violations, per the error handling design of the task engine
// specification.
package taskerr

import "fmt"

// Sentinel errors for the "submit after shutdown" contract. This
// implementation rejects rather than queuing indefinitely is NOT the
// default chosen for Submit (which queues indefinitely against stopped
// workers, per spec) — these are returned only once the engine itself has
// been torn down via its destructor.
var (
	// ErrPoolClosed is returned by Pool.Submit / SubmitDelayed / SetNWorkers
	// once the pool's destructor has run.
	ErrPoolClosed = fmt.Errorf("taskengine: pool is closed")

	// ErrSchedulerClosed is returned by Scheduler.Submit once the
	// scheduler's destructor has run.
	ErrSchedulerClosed = fmt.Errorf("taskengine: scheduler is closed")

	// ErrPoolNotStarted is available to callers holding a nil or
	// unconfigured pool handle. No package in this module returns it:
	// internal/server and cmd/taskengine always hold a started pool.
	ErrPoolNotStarted = fmt.Errorf("taskengine: pool is not started")
)

// ResourceExhaustionError wraps a failure to bring up an execution context
// (a worker's start hook) during construction or a resize. Partial progress
// is preserved by the caller: workers already started stay started.
type ResourceExhaustionError struct {
	Op  string // e.g. "NewPool", "SetNWorkers"
	Err error
}

func (e *ResourceExhaustionError) Error() string {
	return fmt.Sprintf("taskengine: %s: resource exhaustion: %v", e.Op, e.Err)
}

func (e *ResourceExhaustionError) Unwrap() error { return e.Err }

// NewResourceExhaustionError builds a ResourceExhaustionError.
func NewResourceExhaustionError(op string, err error) *ResourceExhaustionError {
	return &ResourceExhaustionError{Op: op, Err: err}
}

// InvariantViolation panics with a formatted message. Used at the one point
// the specification calls fatal: a task observed to be linked into two
// containers at once. Debug-mode assertions in the source language become,
// in Go, an unconditional panic — there is no release-mode "trust it"
// variant worth offering for a broken engine invariant.
func InvariantViolation(format string, args ...any) {
	panic(fmt.Sprintf("taskengine: invariant violation: "+format, args...))
}
