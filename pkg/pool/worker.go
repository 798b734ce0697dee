package pool

import (
	"sync/atomic"

	"github.com/tupyy/taskengine/pkg/future"
	"github.com/tupyy/taskengine/pkg/task"
)

// worker is one execution context owned by the pool. A worker never holds
// the pool lock while running user code; it only reacquires it to check for
// more work or to wait on the condition variable.
type worker struct {
	id int

	// stop, once set, is observed the next time the worker reacquires the
	// pool lock at its loop head — it is never forced mid-task.
	stop atomic.Bool

	// done resolves once this worker's run loop has returned, which is this
	// implementation's analogue of "joined its execution context".
	done *future.Promise[struct{}]
}

func newWorker(id int) *worker {
	return &worker{id: id, done: future.NewPromise[struct{}]()}
}

func (w *worker) doneFuture() *future.Future[struct{}] {
	return w.done.Future()
}

// run is the worker's goroutine body: pop front of tasks, execute outside
// the lock, repeat; block on the pool condition variable when the FIFO is
// empty; exit once stop is observed with the FIFO re-checked empty-or-not
// irrelevant — a stopping worker still drains only up to the point it next
// wakes, per the pool's shutdown contract (queued work survives a worker's
// departure; it is clear() that cancels it, not resize).
func (p *Pool) run(w *worker) {
	defer w.done.Resolve(struct{}{})

	p.mu.Lock()
	for {
		if w.stop.Load() {
			p.mu.Unlock()
			return
		}

		if el := p.tasks.Front(); el != nil {
			t := el.Value.(task.Task)
			p.tasks.Remove(el)
			p.mu.Unlock()

			p.execute(w, t)

			p.mu.Lock()
			continue
		}

		p.cond.Wait()
	}
}
