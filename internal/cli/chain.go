package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	tmplerrors "github.com/templar-cli/templar/pkg/errors"
	"github.com/templar-cli/templar/pkg/inherit"
	"github.com/templar-cli/templar/pkg/template"
)

// chainCommand creates the chain command.
func (c *CLI) chainCommand() *cobra.Command {
	var source sourceFlags

	cmd := &cobra.Command{
		Use:   "chain <template[@version]>",
		Short: "Show a template's inheritance chain",
		Long: `Show a template's inheritance chain.

The chain is printed root-first: the deepest ancestor at the top, the
requested template at the bottom. Cycles and chains deeper than the
configured maximum are reported with the full path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := c.openSource(source)
			if err != nil {
				return err
			}

			chain, err := inherit.New(store, inherit.Options{
				MaxDepth:        c.Config.MaxDepth,
				DefaultStrategy: template.Strategy(c.Config.DefaultStrategy),
			}).ResolveChain(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s", tmplerrors.UserMessage(err))
			}

			fmt.Print(renderChain(chain))
			printDetail("%d template(s), %d declared dependencies", chain.Len(), len(chain.Dependencies()))
			return nil
		},
	}

	c.addSourceFlags(cmd, &source)
	return cmd
}
