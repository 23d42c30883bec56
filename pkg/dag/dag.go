package dag

import (
	"errors"
	"slices"

	"github.com/templar-cli/templar/pkg/template"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the template ID
	// is empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("template ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with
	// the same template ID already exists. Template IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate template ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From
	// node does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To
	// node does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrGraphHasCycle is returned by [Graph.TopoSort] when a cycle
	// prevents a complete topological order. Use [Graph.FindCycles] for
	// the full cycle paths.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Node is a named, versioned template vertex in the dependency graph.
//
// Nodes are owned exclusively by the Graph that created them and are mutated
// only by the resolver during resolution (never after). The zero value is
// not usable - TemplateID must be set before adding to a Graph.
type Node struct {
	TemplateID string // Unique identifier ("name@version")
	Name       string // Dependency name shared by all versions
	Version    string // Resolved or declared version string
	// Dependencies holds the declared requirements of this template,
	// in declaration order.
	Dependencies []template.Dependency
	// Resolved is set by the resolver once a concrete version has been
	// selected for this node's name.
	Resolved bool
}

// Graph is a directed graph of template nodes and their required-version
// edges. Edges point from a dependent template to the template it requires.
//
// Cycles are permitted at insertion time so that diagnostics can report
// every cycle, not just the first; they are detected by [Graph.FindCycles]
// and rejected by [Graph.TopoSort].
//
// The zero value is not usable - use New. Graph is not safe for concurrent
// use; resolvers construct one graph per resolution request.
type Graph struct {
	nodes    map[string]*Node
	order    []string            // insertion order, for deterministic iteration
	outgoing map[string][]string // templateID -> required template IDs
	incoming map[string][]string // templateID -> dependent template IDs
}

// New creates an empty dependency graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// AddNode adds a node to the graph.
// Returns ErrInvalidNodeID if the template ID is empty, or
// ErrDuplicateNodeID if a node with the same ID already exists.
func (g *Graph) AddNode(n Node) error {
	if n.TemplateID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.TemplateID]; exists {
		return ErrDuplicateNodeID
	}
	node := &n
	g.nodes[node.TemplateID] = node
	g.order = append(g.order, node.TemplateID)
	return nil
}

// AddEdge records that from requires to.
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode if either endpoint
// is missing. Adding an edge that closes a cycle is not an error here -
// cycles are surfaced by FindCycles and TopoSort.
func (g *Graph) AddEdge(from, to string) error {
	if _, ok := g.nodes[from]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[to]; !ok {
		return ErrUnknownTargetNode
	}
	if slices.Contains(g.outgoing[from], to) {
		return nil // duplicate declaration, keep the first
	}
	g.outgoing[from] = append(g.outgoing[from], to)
	g.incoming[to] = append(g.incoming[to], from)
	return nil
}

// Node returns the node with the given template ID and true, or nil and
// false if not found. The returned pointer refers to the actual node, so
// resolver-side mutation is visible through the graph.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// IDs returns all template IDs in insertion order.
func (g *Graph) IDs() []string { return slices.Clone(g.order) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, targets := range g.outgoing {
		total += len(targets)
	}
	return total
}

// Requires returns the template IDs that id depends on, in declaration
// order. The returned slice is a read-only view.
func (g *Graph) Requires(id string) []string { return g.outgoing[id] }

// RequiredBy returns the template IDs that depend on id.
// The returned slice is a read-only view.
func (g *Graph) RequiredBy(id string) []string { return g.incoming[id] }

// Roots returns nodes with no dependents, in insertion order.
// These are the templates the user directly requested.
func (g *Graph) Roots() []*Node {
	var roots []*Node
	for _, id := range g.order {
		if len(g.incoming[id]) == 0 {
			roots = append(roots, g.nodes[id])
		}
	}
	return roots
}

// Leaves returns nodes with no dependencies, in insertion order.
func (g *Graph) Leaves() []*Node {
	var leaves []*Node
	for _, id := range g.order {
		if len(g.outgoing[id]) == 0 {
			leaves = append(leaves, g.nodes[id])
		}
	}
	return leaves
}
