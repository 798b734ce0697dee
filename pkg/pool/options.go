package pool

import "go.uber.org/zap"

// Option configures a Pool at construction time.
type Option func(*Pool)

// WithLogger overrides the pool's logger. Defaults to a no-op logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(p *Pool) { p.logger = l }
}

// WithWorkerStartHook installs a hook invoked every time the pool brings up
// a new execution context (construction or SetNWorkers growth). An error
// models resource exhaustion — e.g. the OS refusing a new goroutine's
// backing thread-local resources, a connection-pool slot, or whatever
// per-worker setup the embedding application requires. Workers already
// started before the error are kept.
func WithWorkerStartHook(fn func() error) Option {
	return func(p *Pool) { p.startHook = fn }
}
