// Package scheduler implements the threaded deadline scheduler: a single
// dedicated goroutine driving a container/heap min-heap keyed by absolute
// deadline, firing each task no earlier than its deadline and in
// non-decreasing deadline order (ties broken arbitrarily, matching the
// heap's own tie-breaking — there is no FIFO guarantee among ties).
//
// The loop wakes either because a new earliest deadline was submitted, the
// scheduler is closing, or the previously-earliest deadline has arrived. It
// never busy-polls: between wakeups it blocks on a timer set to the heap's
// current top, or on a sentinel duration when the heap is empty, chosen
// safely below the maximum representable duration to avoid overflow when
// added to the current time.
package scheduler
