package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/templar-cli/templar/pkg/pipeline"
)

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var (
		source   sourceFlags
		strategy string
		refresh  bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <template[@version]>",
		Short: "Show the dependency resolution plan for a template",
		Long: `Show the dependency resolution plan for a template.

Walks the inheritance chain, collects every dependency declaration, and
selects one version per dependency. Conflicts are reported with their
complete constraint sets and every template that requested them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.execute(cmd.Context(), args[0], source, strategy, refresh)
			if err != nil {
				return err
			}

			if asJSON {
				return writePlanJSON(res)
			}

			if len(res.Conflicts) > 0 {
				printError("%d dependency conflict(s)", len(res.Conflicts))
				fmt.Println(renderConflictTable(res.Conflicts))
			}
			if len(res.Versions) > 0 {
				fmt.Println(renderPlanTable(res))
			}
			printRunStats(res)
			if len(res.Conflicts) > 0 {
				return fmt.Errorf("resolution failed for %s", args[0])
			}
			return nil
		},
	}

	c.addSourceFlags(cmd, &source)
	cmd.Flags().StringVar(&strategy, "strategy", "", "default composition strategy: replace, override, merge")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the result cache")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")

	return cmd
}

// planJSON is the --json wire form of a resolution plan.
type planJSON struct {
	TemplateID   string              `json:"template_id"`
	Versions     map[string]string   `json:"versions"`
	Order        []string            `json:"order"`
	InstallOrder []string            `json:"install_order,omitempty"`
	Conflicts    []map[string]any    `json:"conflicts,omitempty"`
	Warnings     []string            `json:"warnings,omitempty"`
}

func writePlanJSON(res *pipeline.Result) error {
	plan := planJSON{
		TemplateID:   res.TemplateID,
		Versions:     make(map[string]string, len(res.Versions)),
		Order:        res.Order,
		InstallOrder: res.InstallOrder,
		Warnings:     res.Warnings,
	}
	for name, v := range res.Versions {
		plan.Versions[name] = v.String()
	}
	for _, conflict := range res.Conflicts {
		constraints := make([]string, len(conflict.Constraints))
		for i, constraint := range conflict.Constraints {
			constraints[i] = constraint.String()
		}
		plan.Conflicts = append(plan.Conflicts, map[string]any{
			"name":         conflict.Name,
			"reason":       conflict.Reason,
			"constraints":  constraints,
			"requested_by": conflict.RequestedBy,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}
