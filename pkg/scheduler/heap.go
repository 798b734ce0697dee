package scheduler

import (
	"time"

	"github.com/tupyy/taskengine/pkg/task"
)

// item is one entry in the deadline heap.
type item struct {
	deadline time.Time
	t        task.Task
}

// itemHeap is a strict min-heap by deadline, implementing container/heap.
type itemHeap []*item

func (h itemHeap) Len() int            { return len(h) }
func (h itemHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h itemHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *itemHeap) Push(x interface{}) { *h = append(*h, x.(*item)) }
func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}
