// Package dag implements the directed dependency graph at the heart of
// template resolution.
//
// Nodes are named, versioned templates; an edge from A to B means A
// requires B. The graph deliberately accepts cycles at insertion time so
// that diagnostics can report every cycle with its full path - validation
// happens at resolution time via [Graph.FindCycles] and [Graph.TopoSort].
//
// # Determinism
//
// Iteration, cycle reporting, and topological ordering are all stable with
// respect to insertion order: resolving the same input graph twice yields
// byte-identical results. [Graph.TopoSort] uses Kahn's algorithm with
// declaration-order tie-breaks.
//
// # Concurrency
//
// A Graph is built fresh per resolution request and is not safe for
// concurrent mutation. Hosts wanting parallel resolutions should run one
// resolver (and therefore one graph) per request.
package dag
