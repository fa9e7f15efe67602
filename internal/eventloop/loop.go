package eventloop

import (
	"container/heap"
	"context"
	"errors"
	"time"
)

// ErrStopped is returned by Do when the loop exits before running fn.
var ErrStopped = errors.New("event loop stopped")

// Loop is a single-threaded timer scheduler. Timer callbacks and functions
// passed to Do/Post all execute on whichever goroutine drives the loop.
type Loop struct {
	clock  Clock
	timers timerQueue
	seq    uint64

	posts chan func()
	done  chan struct{}
}

// New creates a loop reading time from clock.
func New(clock Clock) *Loop {
	if clock == nil {
		clock = WallClock{}
	}
	return &Loop{
		clock: clock,
		posts: make(chan func(), 64),
		done:  make(chan struct{}),
	}
}

// Now returns the loop's current time.
func (l *Loop) Now() time.Time { return l.clock.Now() }

// AfterFunc schedules fn to run d after now. A non-positive d schedules fn
// for the next turn of the loop, behind timers already due.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	l.seq++
	t := &Timer{when: l.clock.Now().Add(d), seq: l.seq, fn: fn, loop: l}
	heap.Push(&l.timers, t)
	return t
}

// Pending returns the number of queued timers.
func (l *Loop) Pending() int { return len(l.timers) }

// Advance moves a ManualClock forward by d, firing due timers in order. Each
// callback observes the clock at its own due time. Timers scheduled by a
// callback fire too if they fall inside the window. Advance panics when the
// loop is not driven by a ManualClock.
func (l *Loop) Advance(d time.Duration) {
	mc, ok := l.clock.(*ManualClock)
	if !ok {
		panic("eventloop: Advance requires a ManualClock")
	}
	deadline := mc.Now().Add(d)
	for len(l.timers) > 0 && !l.timers[0].when.After(deadline) {
		t := heap.Pop(&l.timers).(*Timer)
		mc.set(t.when)
		t.fn()
	}
	mc.set(deadline)
}

// fireDue runs every timer due at the clock's current time.
func (l *Loop) fireDue() {
	now := l.clock.Now()
	for len(l.timers) > 0 && !l.timers[0].when.After(now) {
		t := heap.Pop(&l.timers).(*Timer)
		t.fn()
	}
}

// Run drives the loop until ctx is done. Only one goroutine may call Run.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	wait := time.NewTimer(time.Hour)
	defer wait.Stop()

	for {
		l.fireDue()

		var wake <-chan time.Time
		if len(l.timers) > 0 {
			d := l.timers[0].when.Sub(l.clock.Now())
			if d < 0 {
				d = 0
			}
			wait.Reset(d)
			wake = wait.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.posts:
			fn()
		case <-wake:
		}

		if !wait.Stop() {
			select {
			case <-wait.C:
			default:
			}
		}
	}
}

// Post queues fn to run on the loop goroutine without waiting for it.
func (l *Loop) Post(fn func()) {
	select {
	case l.posts <- fn:
	case <-l.done:
	}
}

// Do runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.posts <- wrapped:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
