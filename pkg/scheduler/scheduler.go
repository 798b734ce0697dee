package scheduler

import (
	"container/heap"
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tupyy/taskengine/pkg/task"
	"github.com/tupyy/taskengine/pkg/taskerr"
)

// sentinelWait is the loop's sleep duration when the heap is empty: safely
// below the maximum representable time.Duration, per the documented
// max()/2 convention, so that time.NewTimer(sentinelWait) never overflows.
const sentinelWait = time.Duration(math.MaxInt64 / 2)

// Scheduler is a single-goroutine deadline-ordered task runner. The zero
// value is not usable; construct with NewScheduler.
type Scheduler struct {
	mu sync.Mutex
	h  itemHeap

	stopped  bool
	wake     chan struct{}
	loopDone chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	now    func() time.Time
	logger *zap.SugaredLogger

	// tickBudget bounds how long a single catch-up drain (the inner loop
	// below) may run before the loop re-checks stopped/wake, even if the
	// heap still has due items left. Zero means unbounded: the drain runs
	// to completion before the loop ever looks at stopped again. See
	// WithTickBudget.
	tickBudget time.Duration
}

// NewScheduler starts the scheduler's dedicated goroutine and returns it.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		wake:     make(chan struct{}, 1),
		loopDone: make(chan struct{}),
		now:      time.Now,
		logger:   zap.NewNop().Sugar(),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(s)
	}
	heap.Init(&s.h)
	go s.loop()
	return s
}

// Submit pushes (t, deadline) into the heap. Ownership of t passes to the
// scheduler: it will be executed at or after deadline, or abandoned if the
// scheduler closes first.
func (s *Scheduler) Submit(t task.Task, deadline time.Time) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		t.Abandon()
		return taskerr.ErrSchedulerClosed
	}
	heap.Push(&s.h, &item{deadline: deadline, t: t})
	s.mu.Unlock()

	// Notifying unconditionally (rather than only when the new item became
	// the new top) is the simpler of the two behaviors the specification
	// allows; the loop re-reads the heap's current top on every wakeup
	// regardless, so a spurious wakeup just costs one extra lock/unlock.
	s.notify()
	return nil
}

// Clear cancels every task currently in the heap without stopping the
// scheduler's goroutine.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	old := s.h
	s.h = itemHeap{}
	s.mu.Unlock()

	for _, it := range old {
		it.t.Abandon()
	}
	s.notify()
}

// Len reports the current heap size, exposed to internal/server's /stats
// endpoint alongside the next pending deadline.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Len()
}

// NextDeadline returns the earliest pending deadline and whether the heap
// is non-empty.
func (s *Scheduler) NextDeadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.h.Len() == 0 {
		return time.Time{}, false
	}
	return s.h[0].deadline, true
}

// Close is the scheduler's destructor: under lock, marks stopped and takes
// the heap's contents; after releasing the lock it cancels the scheduler
// context, abandons every taken item, notifies the loop, then waits for it
// to exit. Close is idempotent.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	old := s.h
	s.h = itemHeap{}
	s.mu.Unlock()

	s.cancel()
	for _, it := range old {
		it.t.Abandon()
	}
	s.notify()
	<-s.loopDone
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop() {
	defer close(s.loopDone)
	for {
		s.mu.Lock()
		drainDeadline := time.Time{}
		if s.tickBudget > 0 {
			drainDeadline = time.Now().Add(s.tickBudget)
		}
		for s.h.Len() > 0 && !s.h[0].deadline.After(s.now()) {
			it := heap.Pop(&s.h).(*item)
			s.mu.Unlock()
			s.execute(it)
			s.mu.Lock()

			// A pathological backlog of past-due tasks would otherwise keep
			// this drain running indefinitely before stopped is ever
			// resampled below; tickBudget bounds that window so a
			// concurrent Close/Clear is observed within one budget's worth
			// of lag instead of only once the whole backlog is gone.
			if !drainDeadline.IsZero() && time.Now().After(drainDeadline) {
				break
			}
		}

		stopped := s.stopped
		var wait time.Duration
		if s.h.Len() == 0 {
			wait = sentinelWait
		} else if wait = s.h[0].deadline.Sub(s.now()); wait < 0 {
			wait = 0
		}
		s.mu.Unlock()

		if stopped {
			return
		}

		timer := time.NewTimer(wait)
		select {
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (s *Scheduler) execute(it *item) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("scheduled task panicked", "panic", r)
		}
	}()
	it.t.Execute(s.ctx)
}
