package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/templar-cli/templar/pkg/graphio"
)

// Graph output formats.
const (
	formatDOT  = "dot"
	formatSVG  = "svg"
	formatJSON = "json"
)

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		source   sourceFlags
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "graph <template[@version]>",
		Short: "Export a template's resolved dependency graph",
		Long: `Export a template's resolved dependency graph.

Resolves the template's dependencies and writes the graph as Graphviz DOT,
rendered SVG, or JSON. Unresolved nodes (conflicts) render dashed in DOT
and SVG output so problems stand out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatDOT && format != formatSVG && format != formatJSON {
				return fmt.Errorf("unknown format %q (want dot, svg, or json)", format)
			}

			// The graph is only attached to fresh runs, so bypass the
			// result cache.
			res, err := c.execute(cmd.Context(), args[0], source, "", true)
			if err != nil {
				return err
			}
			if res.Resolution == nil || res.Resolution.Graph == nil {
				return fmt.Errorf("no graph produced for %s", args[0])
			}
			graph := res.Resolution.Graph

			var data []byte
			switch format {
			case formatDOT:
				data = []byte(graphio.ToDOT(graph, graphio.DOTOptions{Detailed: detailed}))
			case formatSVG:
				dot := graphio.ToDOT(graph, graphio.DOTOptions{Detailed: detailed})
				data, err = graphio.RenderSVG(cmd.Context(), dot)
				if err != nil {
					return err
				}
			case formatJSON:
				data, err = graphio.MarshalGraph(graph)
				if err != nil {
					return err
				}
			}

			if output == "" || output == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			printSuccess("Wrote %s", output)
			return nil
		},
	}

	c.addSourceFlags(cmd, &source)
	cmd.Flags().StringVarP(&format, "format", "f", formatDOT, "output format: dot, svg, json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include versions in node labels")

	return cmd
}
