package graphio

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/templar-cli/templar/pkg/dag"
)

// DOTOptions configures DOT export.
type DOTOptions struct {
	// Detailed includes the resolved version in node labels.
	Detailed bool
}

// ToDOT converts a dependency graph to Graphviz DOT format. Resolved
// nodes render solid; unresolved nodes get a dashed grey outline so
// conflicts stand out. The resulting DOT string can be rendered with
// [RenderSVG].
func ToDOT(g *dag.Graph, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		label := n.TemplateID
		if opts.Detailed && n.Version != "" {
			label = fmt.Sprintf("%s\n%s", n.Name, n.Version)
		}
		attrs := fmt.Sprintf("label=%q", label)
		if !n.Resolved {
			attrs += `, style="rounded,filled,dashed", fillcolor=lightgrey`
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.TemplateID, attrs)
	}

	buf.WriteString("\n")
	for _, n := range g.Nodes() {
		for _, to := range g.Requires(n.TemplateID) {
			fmt.Fprintf(&buf, "  %q -> %q;\n", n.TemplateID, to)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
