package pool

import (
	"container/list"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tupyy/taskengine/pkg/future"
	"github.com/tupyy/taskengine/pkg/task"
	"github.com/tupyy/taskengine/pkg/taskerr"
)

// Pool is a fixed-but-resizable worker pool. The zero value is not usable;
// construct with NewPool.
type Pool struct {
	mu   sync.Mutex
	cond *sync.Cond

	// workers is ordered: a prefix of live workers followed by a suffix of
	// `pending` workers whose stop flag has been set and that have not yet
	// been reaped by reapStoppedLocked (their run loop may already have
	// returned; reaping happens on the next SetNWorkers).
	workers []*worker
	pending int

	nextWorkerID int

	tasks   *list.List // FIFO of task.Task, ready to run
	delayed *list.List // of *bridge, awaiting their timer

	// delayedCount counts bridges that lost the abandon-vs-fire race to the
	// timer during a clear()/Close() in progress and are still draining on
	// the fire() path; clear() blocks until it reaches zero. See bridge.go.
	delayedCount int

	closed bool

	ctx    context.Context
	cancel context.CancelFunc

	logger    *zap.SugaredLogger
	startHook func() error
}

// Stats is a point-in-time snapshot of pool occupancy, exposed to
// internal/server's /stats endpoint.
type Stats struct {
	Workers int // live, non-stopping execution contexts
	Pending int // workers mid-shutdown, not yet joined
	Queued  int // tasks ready to run
	Delayed int // bridges still waiting on their timer
}

// NewPool starts n workers and returns the pool. If a WithWorkerStartHook
// option is set and it errors partway through, the workers already started
// are kept running and a *taskerr.ResourceExhaustionError is returned.
func NewPool(n int, opts ...Option) (*Pool, error) {
	p := &Pool{
		tasks:   list.New(),
		delayed: list.New(),
		logger:  zap.NewNop().Sugar(),
	}
	p.cond = sync.NewCond(&p.mu)
	p.ctx, p.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(p)
	}

	if n < 0 {
		n = 0
	}
	for i := 0; i < n; i++ {
		if p.startHook != nil {
			if err := p.startHook(); err != nil {
				return p, taskerr.NewResourceExhaustionError("NewPool", err)
			}
		}
		p.startWorkerLocked()
	}
	return p, nil
}

// startWorkerLocked allocates a worker and spawns its goroutine. Callers
// that are not already holding p.mu must not call this directly; NewPool
// calls it before the pool is shared, SetNWorkers calls it under lock.
func (p *Pool) startWorkerLocked() *worker {
	w := newWorker(p.nextWorkerID)
	p.nextWorkerID++

	// Insert before the stopping suffix so live workers stay a contiguous
	// prefix and the stopping suffix stays contiguous at the end.
	cut := len(p.workers) - p.pending
	live := append([]*worker{}, p.workers[:cut]...)
	stopping := p.workers[cut:]
	live = append(live, w)
	p.workers = append(live, stopping...)

	go p.run(w)
	return w
}

// Submit appends t to the ready FIFO and wakes one idle worker. Ownership
// of t passes to the pool: it will be executed or, if the pool shuts down
// first, abandoned.
func (p *Pool) Submit(t task.Task) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return taskerr.ErrPoolClosed
	}
	p.tasks.PushBack(t)
	p.cond.Signal()
	p.mu.Unlock()
	return nil
}

// SubmitDelayed hands t to a bridge that will move it into the ready FIFO
// once timer resolves. If timer is already resolved, the task becomes
// ready as soon as the continuation machinery in pkg/future runs it, which
// for an already-ready future is synchronous, inline, before Then returns —
// so t is already in the FIFO by the time SubmitDelayed returns.
func (p *Pool) SubmitDelayed(t task.Task, timer *future.Future[time.Time]) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		t.Abandon()
		return taskerr.ErrPoolClosed
	}
	b := &bridge{pool: p, t: t}
	b.elem = p.delayed.PushBack(b)
	p.mu.Unlock()

	b.attach(timer)
	return nil
}

// GetNWorkers returns the current logical worker count: live workers, not
// counting the stopping suffix still draining from a shrink.
func (p *Pool) GetNWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers) - p.pending
}

// SetNWorkers resizes the pool to n live workers and returns a future that
// resolves once the resize has taken full effect from the caller's point of
// view: immediately for a no-op or a grow, or once every surplus worker's
// run loop has returned for a shrink. If a WithWorkerStartHook is
// configured and fails partway through a grow, workers started so far are
// kept and the error is returned alongside a future that is nonetheless
// ready (the partial resize already happened).
func (p *Pool) SetNWorkers(n int) (*future.Future[struct{}], error) {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return future.MakeReady(struct{}{}), taskerr.ErrPoolClosed
	}
	if n < 0 {
		n = 0
	}

	p.reapStoppedLocked()

	old := len(p.workers) - p.pending
	switch {
	case n == old:
		p.mu.Unlock()
		return future.MakeReady(struct{}{}), nil

	case n > old:
		var startErr error
		for i := 0; i < n-old; i++ {
			if p.startHook != nil {
				if err := p.startHook(); err != nil {
					startErr = taskerr.NewResourceExhaustionError("SetNWorkers", err)
					break
				}
			}
			p.startWorkerLocked()
		}
		p.mu.Unlock()
		return future.MakeReady(struct{}{}), startErr

	default: // n < old
		surplus := old - n
		live := p.workers[:old]
		stopping := live[old-surplus:]
		for _, w := range stopping {
			w.stop.Store(true)
		}
		p.pending += surplus
		p.cond.Broadcast()

		futs := make([]*future.Future[struct{}], len(stopping))
		for i, w := range stopping {
			futs[i] = w.doneFuture()
		}
		p.mu.Unlock()

		agg := future.WhenAll(futs...)
		done := future.NewPromise[struct{}]()
		agg.Then(func(_ []struct{}, err error) { done.Resolve(struct{}{}) })
		return done.Future(), nil
	}
}

// reapStoppedLocked drops joined workers from the stopping suffix. Must be
// called with p.mu held.
func (p *Pool) reapStoppedLocked() {
	old := len(p.workers) - p.pending
	live := p.workers[:old]
	stopping := p.workers[old:]

	kept := stopping[:0:0]
	for _, w := range stopping {
		if !w.doneFuture().Ready() {
			kept = append(kept, w)
		}
	}
	p.pending = len(kept)
	p.workers = append(live, kept...)
}

// Clear cancels all outstanding work — ready and delayed — without
// stopping any worker. It is not safe to call Clear concurrently with
// another Clear: both would share the delayedCount wait; internal callers
// (Close) never do.
func (p *Pool) Clear() {
	p.mu.Lock()

	var abandonNow []task.Task
	for el := p.delayed.Front(); el != nil; {
		next := el.Next()
		b := el.Value.(*bridge)
		if b.abandonNow() {
			p.delayed.Remove(el)
			b.elem = nil
			abandonNow = append(abandonNow, b.t)
		} else {
			p.delayedCount++
		}
		el = next
	}

	for p.delayedCount > 0 {
		p.cond.Wait()
	}

	pending := p.tasks
	p.tasks = list.New()
	p.mu.Unlock()

	for _, t := range abandonNow {
		t.Abandon()
	}
	for el := pending.Front(); el != nil; el = el.Next() {
		el.Value.(task.Task).Abandon()
	}
}

// Stats returns a point-in-time snapshot of pool occupancy.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Workers: len(p.workers) - p.pending,
		Pending: p.pending,
		Queued:  p.tasks.Len(),
		Delayed: p.delayed.Len(),
	}
}

// Close is the pool's destructor: (1) snapshot and clear the worker list
// under lock, (2) signal every snapshot worker to stop, (3) broadcast, (4)
// cancel the pool context so in-flight tasks observe cancellation, (5)
// invoke Clear to cancel queued and delayed work, (6) await every worker's
// completion future. Ordering step (5) after (1)-(3) ensures a timer firing
// concurrently cannot resurrect a task into the FIFO after the pool is
// declared quiescent: by the time Clear runs, every worker that could still
// pull from the FIFO is already marked to stop. Close is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	snapshot := p.workers
	p.workers = nil
	p.pending = 0
	for _, w := range snapshot {
		w.stop.Store(true)
	}
	p.cond.Broadcast()
	p.mu.Unlock()

	p.cancel()
	p.Clear()

	for _, w := range snapshot {
		<-w.doneFuture().Done()
	}
}

func (p *Pool) execute(w *worker, t task.Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorw("task panicked", "panic", r, "worker", w.id)
		}
	}()
	t.Execute(p.ctx)
}
