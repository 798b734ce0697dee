// Package pool implements a fixed-but-resizable worker pool: a set of
// goroutine execution contexts pulling tasks from a single FIFO, plus a
// "delayed" side-channel for tasks gated by an external timer future.
//
// # Architecture
//
//	┌────────────────────────────────────────────────────────────────┐
//	│                              Pool                               │
//	│                                                                 │
//	│  Submit(task) ───────────────────► tasks FIFO ◄──┐              │
//	│                                        │          │              │
//	│                                        ▼          │ bridge fires │
//	│  SubmitDelayed(task, timer) ──► delayed bridges ───┘              │
//	│                                                                 │
//	│  worker 1 ◄── pop front ──┐                                     │
//	│  worker 2 ◄── pop front ──┤── tasks FIFO                        │
//	│  worker N ◄── pop front ──┘                                     │
//	└────────────────────────────────────────────────────────────────┘
//
// A single mutex covers the workers slice, the tasks FIFO, the delayed
// list, and the pending/delayedCount bookkeeping; a condition variable on
// the same lock wakes idle workers and signals shutdown progress.
//
// # Delayed tasks
//
// SubmitDelayed hands the task to a bridge, which attaches itself as a
// one-shot continuation on the caller's timer future. When the timer
// fires, the bridge atomically claims ownership (a single CAS on its
// "marked" bit) and moves the task into the ready FIFO. Clear() and Close()
// race the same CAS from the other direction: whichever side wins the CAS
// decides the task's fate, and the loser does nothing but drop its
// reference. See bridge.go for the two-phase protocol this implements.
//
// # Resize
//
// SetNWorkers grows by starting new goroutines immediately, or shrinks by
// marking the surplus workers' stop flags and waking them; the future it
// returns resolves once every marked worker's own completion future has
// resolved. Workers never block on anything but the pool's condition
// variable, and user task callbacks never run while the pool lock is held.
package pool
