package priosched

import "container/heap"

// taskHeap is a binary min-heap over *Task entries, compared by
// (sortIndex, id) ascending. id is the secondary key, which guarantees
// FIFO among entries submitted at the same instant with the same priority
// (spec.md §4.1).
//
// Only push, pop and peek are supported — pop of an arbitrary mid-heap
// entry is deliberately not exposed, which is why cancellation is
// tombstone-based (spec.md §4.1, §4.5).
type taskHeap []*Task

// sort.Interface, required by container/heap.
func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].sortIndex != h[j].sortIndex {
		return h[i].sortIndex < h[j].sortIndex
	}
	return h[i].id < h[j].id
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

// heap.Interface.
func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(*Task))
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return task
}

// push inserts entry into h, maintaining the heap invariant.
func push(h *taskHeap, entry *Task) {
	heap.Push(h, entry)
}

// pop removes and returns the root of h, or nil if h is empty.
func pop(h *taskHeap) *Task {
	if h.Len() == 0 {
		return nil
	}
	return heap.Pop(h).(*Task)
}

// peek returns the root of h without removing it, or nil if h is empty.
func peek(h *taskHeap) *Task {
	if h.Len() == 0 {
		return nil
	}
	return (*h)[0]
}
