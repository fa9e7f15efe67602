// Package dag holds the static definition of a workflow: its nodes, the
// directed dependency edges between them and the dependency layers derived
// from those edges.
//
// A TaskGraph is validated once, in Build, and is immutable afterwards. Runs
// copy what they need out of it, so a single TaskGraph may back any number of
// runs.
//
// Layers are topological generations. Layer 0 holds every node without an
// incoming edge; every other node sits one layer after its deepest
// predecessor. Within a layer nodes keep their declaration order, which keeps
// simulated timing reproducible.
package dag
