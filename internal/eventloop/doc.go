// Package eventloop is the single cooperative timeline every simulation
// component runs on.
//
// A Loop owns an ordered queue of timers. Callbacks run one at a time, never
// concurrently, so state they touch needs no locking. Between callbacks no
// simulation state changes.
//
// Two ways of driving a loop exist:
//
//   - Run, for production: waits on the wall clock and also executes
//     functions handed over from other goroutines via Do and Post.
//   - Advance, for tests: steps a ManualClock forward and fires every timer
//     that falls due, in order, on the calling goroutine.
package eventloop
