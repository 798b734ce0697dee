// Package task defines the contract every unit of work submitted to the
// pool or the scheduler must satisfy.
package task

import "context"

// Task is an opaque unit of work. An engine calls exactly one of Execute or
// Abandon over the lifetime of a task it has accepted, never both, never
// neither. Both must tolerate being called from any goroutine the owning
// engine happens to run on.
type Task interface {
	// Execute runs the work. Called at most once, outside any engine lock.
	// ctx is cancelled if the engine is torn down while the task is running;
	// well-behaved tasks should respect it, but a task that ignores
	// cancellation only delays shutdown, it never corrupts engine state.
	Execute(ctx context.Context)

	// Abandon notifies the task it will never execute. Called at most once,
	// typically because the engine shut down, or clear() ran, before the
	// task's turn came up.
	Abandon()
}

// Func adapts a plain function to Task for tasks with no abandonment logic
// of their own.
type Func func(ctx context.Context)

func (f Func) Execute(ctx context.Context) { f(ctx) }
func (f Func) Abandon()                    {}

// WithAbandon pairs an execute function with an abandon function.
type WithAbandon struct {
	ExecuteFn func(ctx context.Context)
	AbandonFn func()
}

func (t WithAbandon) Execute(ctx context.Context) {
	if t.ExecuteFn != nil {
		t.ExecuteFn(ctx)
	}
}

func (t WithAbandon) Abandon() {
	if t.AbandonFn != nil {
		t.AbandonFn()
	}
}
