package eventloop

import (
	"container/heap"
	"time"
)

// Timer is a cancellable handle to a scheduled callback.
type Timer struct {
	when  time.Time
	seq   uint64
	fn    func()
	index int // position in the heap, -1 once fired or stopped
	loop  *Loop
}

// When returns the time the timer is due.
func (t *Timer) When() time.Time { return t.when }

// Stop cancels the timer. It reports false when the timer already fired or
// was stopped before. Stop must be called from the loop's goroutine.
func (t *Timer) Stop() bool {
	if t == nil || t.index < 0 {
		return false
	}
	heap.Remove(&t.loop.timers, t.index)
	t.index = -1
	return true
}

// Pending reports whether the timer is still queued.
func (t *Timer) Pending() bool {
	return t != nil && t.index >= 0
}

// timerQueue orders timers by due time, then by scheduling order.
type timerQueue []*Timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if !q[i].when.Equal(q[j].when) {
		return q[i].when.Before(q[j].when)
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*Timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
