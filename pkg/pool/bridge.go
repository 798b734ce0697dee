package pool

import (
	"container/list"
	"sync/atomic"
	"time"

	"github.com/tupyy/taskengine/pkg/future"
	"github.com/tupyy/taskengine/pkg/task"
	"github.com/tupyy/taskengine/pkg/taskerr"
)

// bridge is the one-shot object coupling a timer future to the pool. It
// arbitrates, via a single-bit compare-and-swap, between the timer firing
// first and the pool cancelling or destructing first. Exactly one of fire
// or abandonNow ever wins the CAS; the loser does nothing beyond dropping
// its reference.
type bridge struct {
	pool *Pool
	t    task.Task
	elem *list.Element // this bridge's node in pool.delayed

	marked atomic.Bool
}

// attach installs the bridge as the timer future's one-shot continuation.
// Must be called after elem has been set (the bridge is already linked
// into pool.delayed).
func (b *bridge) attach(timer *future.Future[time.Time]) {
	timer.Then(func(time.Time, error) {
		b.fire()
	})
}

// fire runs as the timer's continuation, on whatever goroutine resolves it
// — possibly a pool worker belonging to the very pool being fed, so it must
// never take the pool lock recursively. The critical section below is the
// only place that mutates pool.delayed/pool.tasks/pool.delayedCount on this
// path, so there is no re-entrancy hazard.
func (b *bridge) fire() {
	if !b.marked.CompareAndSwap(false, true) {
		// clear() or Close() already claimed this bridge and is abandoning it.
		return
	}

	p := b.pool
	p.mu.Lock()
	if b.elem == nil {
		// Winning the CAS should make this unreachable: a bridge is linked
		// into p.delayed exactly once, at SubmitDelayed time, and unlinked
		// exactly once, by whichever of fire/abandonNow wins. Getting here
		// means the task would be pushed into p.tasks a second time or
		// pushed after already being unlinked elsewhere — the "a task is in
		// at most one list at a time" invariant is broken.
		p.mu.Unlock()
		taskerr.InvariantViolation("pool: delayed bridge for task %T fired with no list element", b.t)
	}
	p.delayed.Remove(b.elem)
	b.elem = nil
	p.tasks.PushBack(b.t)
	if p.delayedCount > 0 {
		p.delayedCount--
		if p.delayedCount == 0 {
			p.cond.Broadcast()
		}
	}
	p.cond.Signal()
	p.mu.Unlock()
}

// abandonNow is the other side of the CAS race, used by clear()/Close() when
// iterating pool.delayed under lock. Returns true if this call won the race
// (meaning the caller is now responsible for unlinking and abandoning the
// task); false means the timer has already claimed it and is in flight on
// the fire() path, in which case the caller must instead bump
// pool.delayedCount and wait for fire() to drain it.
func (b *bridge) abandonNow() bool {
	return b.marked.CompareAndSwap(false, true)
}
