package graphio

import "github.com/templar-cli/templar/pkg/dag"

// Graph is the JSON wire form of a dependency graph. Declared dependency
// constraints are not carried; the edges capture the resolved structure.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is the wire form of one graph node.
type Node struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Version  string `json:"version,omitempty"`
	Resolved bool   `json:"resolved,omitempty"`
}

// Edge is a directed dependency: From requires To.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// FromGraph converts a dag.Graph to its wire form, preserving insertion
// order.
func FromGraph(g *dag.Graph) Graph {
	out := Graph{}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, Node{
			ID:       n.TemplateID,
			Name:     n.Name,
			Version:  n.Version,
			Resolved: n.Resolved,
		})
		for _, to := range g.Requires(n.TemplateID) {
			out.Edges = append(out.Edges, Edge{From: n.TemplateID, To: to})
		}
	}
	return out
}

// ToGraph rebuilds a dag.Graph from its wire form, validating node and
// edge references.
func ToGraph(data Graph) (*dag.Graph, error) {
	g := dag.New()
	for _, n := range data.Nodes {
		err := g.AddNode(dag.Node{
			TemplateID: n.ID,
			Name:       n.Name,
			Version:    n.Version,
			Resolved:   n.Resolved,
		})
		if err != nil {
			return nil, err
		}
	}
	for _, e := range data.Edges {
		if err := g.AddEdge(e.From, e.To); err != nil {
			return nil, err
		}
	}
	return g, nil
}
