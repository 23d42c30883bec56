package dag

import (
	"slices"
	"strings"
)

// FindCycles returns every distinct cycle in the graph. Each cycle is a
// full path that starts and ends on the same template ID, e.g.
// [a, b, c, a]. An acyclic graph returns nil.
//
// Detection is an iterative depth-first search with visiting/visited marker
// sets: reaching a node that is still marked visiting closes a cycle, and
// the path is read off the current DFS stack. The search continues after
// each find so that all cycles are reported, not just the first.
func (g *Graph) FindCycles() [][]string {
	const (
		unvisited = iota
		visiting
		visited
	)

	state := make(map[string]int, len(g.nodes))
	var cycles [][]string
	seen := make(map[string]bool) // canonical cycle keys, for dedup

	for _, start := range g.order {
		if state[start] != unvisited {
			continue
		}

		stack := []frame{{id: start}}
		state[start] = visiting

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.outgoing[top.id]

			if top.next >= len(deps) {
				state[top.id] = visited
				stack = stack[:len(stack)-1]
				continue
			}

			child := deps[top.next]
			top.next++

			switch state[child] {
			case unvisited:
				state[child] = visiting
				stack = append(stack, frame{id: child})
			case visiting:
				// The cycle is the stack segment from child back
				// to the top, closed with child itself.
				cycle := extractCycle(stack, child)
				if key := canonicalCycleKey(cycle); !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}
	}

	return cycles
}

// HasCycle reports whether the graph contains at least one cycle.
func (g *Graph) HasCycle() bool { return len(g.FindCycles()) > 0 }

// frame tracks how far into a node's dependency list the DFS has advanced,
// so the search can resume after returning from a child.
type frame struct {
	id   string
	next int
}

func extractCycle(stack []frame, entry string) []string {
	start := 0
	for i := range stack {
		if stack[i].id == entry {
			start = i
			break
		}
	}
	cycle := make([]string, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		cycle = append(cycle, f.id)
	}
	cycle = append(cycle, entry)
	return cycle
}

// canonicalCycleKey normalizes a cycle to its rotation starting at the
// smallest ID, so the same cycle entered from different nodes dedupes.
func canonicalCycleKey(cycle []string) string {
	// Drop the closing repeat before rotating.
	ids := cycle[:len(cycle)-1]
	minIdx := 0
	for i, id := range ids {
		if id < ids[minIdx] {
			minIdx = i
		}
	}
	rotated := make([]string, 0, len(ids))
	rotated = append(rotated, ids[minIdx:]...)
	rotated = append(rotated, ids[:minIdx]...)
	return strings.Join(rotated, "\x00")
}

// TopoSort returns a topological order of the template IDs: every template
// appears after everything it requires, giving a valid installation and
// composition order.
//
// The sort is Kahn's algorithm with ties between independent nodes broken
// by insertion (declaration) order, so repeated runs over the same graph
// always produce the same order. Returns ErrGraphHasCycle if a cycle
// prevents a complete order.
func (g *Graph) TopoSort() ([]string, error) {
	// Count unsatisfied dependencies per node; nodes with none are ready.
	remaining := make(map[string]int, len(g.nodes))
	for _, id := range g.order {
		remaining[id] = len(g.outgoing[id])
	}

	position := make(map[string]int, len(g.order))
	for i, id := range g.order {
		position[id] = i
	}

	var ready []string
	for _, id := range g.order {
		if remaining[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		// Declaration order is the deterministic tie-break.
		slices.SortFunc(ready, func(a, b string) int { return position[a] - position[b] })

		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, dependent := range g.incoming[id] {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, ErrGraphHasCycle
	}
	return order, nil
}
