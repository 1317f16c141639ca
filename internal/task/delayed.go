package task

import "time"

// delayedTask is a heap entry: a task parked until readyAt.
type delayedTask struct {
	task    *Task
	readyAt time.Time
}

// delayedHeap is a min-heap ordered by readiness time, so the flush only
// inspects the head to know whether anything is due.
type delayedHeap []*delayedTask

func (h delayedHeap) Len() int            { return len(h) }
func (h delayedHeap) Less(i, j int) bool  { return h[i].readyAt.Before(h[j].readyAt) }
func (h delayedHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *delayedHeap) Push(x interface{}) { *h = append(*h, x.(*delayedTask)) }

func (h *delayedHeap) Pop() interface{} {
	old := *h
	n := len(old)
	dt := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return dt
}
