package demo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tupyy/taskengine/pkg/future"
	"github.com/tupyy/taskengine/pkg/task"
)

// Result is what a demo task resolves its Spec's promise with.
type Result struct {
	Kind string
	Err  error
}

// Spec parameterizes one demo task.
type Spec struct {
	Duration time.Duration
	Promise  *future.Promise[Result]
}

// Option configures a Builder at construction time.
type Option func(*Builder)

// WithLogger overrides the builder's logger. Defaults to a no-op logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithOnResult installs a callback invoked after every demo task resolves
// its promise, alongside the resolution itself — the hook cmd/taskengine
// uses to append to the execution ledger and fan out webhook events.
func WithOnResult(fn func(Result, time.Time, time.Time)) Option {
	return func(b *Builder) { b.onResult = fn }
}

// Builder produces task.Task values for the demo workload kinds.
type Builder struct {
	logger   *zap.SugaredLogger
	onResult func(Result, time.Time, time.Time)
}

// NewBuilder constructs a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{logger: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns a task.Task for the named kind. Unknown kinds are rejected
// at build time rather than surfacing as an Execute-time failure.
func (b *Builder) Build(kind string, spec Spec) (task.Task, error) {
	submittedAt := time.Now()
	switch kind {
	case "sleep":
		return b.sleepTask(spec, submittedAt), nil
	case "compute":
		return b.computeTask(spec, submittedAt), nil
	case "fail":
		return b.failTask(spec, submittedAt), nil
	default:
		return nil, fmt.Errorf("demo: unknown task kind %q", kind)
	}
}

func (b *Builder) sleepTask(spec Spec, submittedAt time.Time) task.Task {
	return task.WithAbandon{
		ExecuteFn: func(ctx context.Context) {
			timer := time.NewTimer(spec.Duration)
			defer timer.Stop()
			select {
			case <-timer.C:
				b.resolve(spec.Promise, Result{Kind: "sleep"}, submittedAt)
			case <-ctx.Done():
				b.resolve(spec.Promise, Result{Kind: "sleep", Err: ctx.Err()}, submittedAt)
			}
		},
		AbandonFn: func() { b.resolve(spec.Promise, Result{Kind: "sleep", Err: context.Canceled}, submittedAt) },
	}
}

func (b *Builder) computeTask(spec Spec, submittedAt time.Time) task.Task {
	return task.WithAbandon{
		ExecuteFn: func(ctx context.Context) {
			deadline := time.Now().Add(spec.Duration)
			var x uint64
			for time.Now().Before(deadline) {
				if ctx.Err() != nil {
					b.resolve(spec.Promise, Result{Kind: "compute", Err: ctx.Err()}, submittedAt)
					return
				}
				// Busy work: keeps a worker genuinely occupied for the
				// requested duration, exercising clear()/resize races.
				x = x*1664525 + 1013904223
			}
			_ = x
			b.resolve(spec.Promise, Result{Kind: "compute"}, submittedAt)
		},
		AbandonFn: func() { b.resolve(spec.Promise, Result{Kind: "compute", Err: context.Canceled}, submittedAt) },
	}
}

func (b *Builder) failTask(spec Spec, submittedAt time.Time) task.Task {
	return task.WithAbandon{
		ExecuteFn: func(ctx context.Context) {
			b.resolve(spec.Promise, Result{Kind: "fail", Err: fmt.Errorf("demo: task failed")}, submittedAt)
		},
		AbandonFn: func() { b.resolve(spec.Promise, Result{Kind: "fail", Err: context.Canceled}, submittedAt) },
	}
}

func (b *Builder) resolve(p *future.Promise[Result], r Result, submittedAt time.Time) {
	if p != nil {
		p.Resolve(r)
	}
	if b.onResult != nil {
		b.onResult(r, submittedAt, time.Now())
	}
}
