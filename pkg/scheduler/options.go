package scheduler

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithLogger overrides the scheduler's logger. Defaults to a no-op logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithClock overrides the scheduler's notion of "now", against which
// deadlines are compared. Defaults to time.Now. The loop's waits between
// wakeups still run on real timers.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithTickBudget bounds how long the loop's catch-up drain of past-due
// tasks may run before re-checking for a pending stop, guarding against a
// pathological backlog of past-due tasks starving shutdown. Zero (the
// default) means unbounded: the drain always runs to completion.
func WithTickBudget(d time.Duration) Option {
	return func(s *Scheduler) { s.tickBudget = d }
}
