// Package graph holds the mutable state of one workflow run: the status and
// log of every node and the active flag of every edge, layered on top of an
// immutable dag.TaskGraph.
//
// A Run is owned by the scheduler and is only touched from the event loop, so
// it carries no locks. Readers on other goroutines receive a Snapshot, which
// is a deep copy.
//
// # Lifecycle
//
//  1. Created by the scheduler with every node Pending and every edge inactive.
//  2. Mutated layer by layer as the scheduler fires its timers.
//  3. Finished as completed or cancelled. The Run keeps its final state for
//     display until the next run replaces it or the trigger is cleared.
package graph
