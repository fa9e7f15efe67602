// Package scheduler replays a workflow graph layer by layer on the event
// loop, turning a trigger string into a timed sequence of node and edge
// state changes.
//
// # Why Scheduler Exists
//
// The workflow is a visualisation of agents cooperating, not a real job
// runner. Nothing is computed: each layer of the DAG is marked Running, held
// there for a fixed dwell, then marked Success, and the next layer starts a
// fixed stagger after the previous one. The scheduler owns that timeline and
// is the only writer of run state.
//
// # How It Works
//
// Start creates a fresh graph.Run and starts layer 0 on the spot. Each layer
// schedules exactly one timer at a time:
//  1. Layer start: nodes go Pending -> Running, incident edges light up.
//  2. After Dwell: the layer's nodes go Running -> Success.
//  3. From inside that callback the next layer start is scheduled for
//     layerStart + Stagger, so a layer can never begin before the previous
//     one has finished.
//
// After the last layer the run completes and its edges stay lit until the
// next Start or Clear.
//
// # Concurrency
//
// Every method must be called from the event loop goroutine. Other goroutines
// go through eventloop.Loop.Do.
package scheduler

import "github.com/specialistvlad/flowsim/internal/graph"

// Controller is the surface intake and transports drive a run through.
type Controller interface {
	// Start begins a run for trigger. A blank trigger clears the workflow
	// and returns nil.
	Start(trigger string) *RunHandle

	// Cancel aborts the run behind h. It reports false for stale handles and
	// runs that already ended.
	Cancel(h *RunHandle) bool

	// Clear cancels any active run and returns the workflow to idle.
	Clear()

	// Snapshot returns a deep copy of the displayed state.
	Snapshot() graph.Snapshot

	// Handle returns the handle of the current run, nil when idle.
	Handle() *RunHandle
}

var _ Controller = (*Scheduler)(nil)
