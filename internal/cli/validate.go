package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	tmplerrors "github.com/templar-cli/templar/pkg/errors"
	"github.com/templar-cli/templar/pkg/store/local"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var templateDir string

	cmd := &cobra.Command{
		Use:   "validate [template[@version]...]",
		Short: "Validate template manifests in the local template directory",
		Long: `Validate template manifests in the local template directory.

Each manifest is parsed and linted: versions and constraints must parse,
strategies must be known, fragment paths must be traversal-safe, and
extended templates must exist. With no arguments every template in the
directory is validated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := templateDir
			if dir == "" {
				dir = c.Config.TemplateDir
			}
			if dir == "" {
				dir = defaultTemplateDir
			}
			store, err := local.New(dir)
			if err != nil {
				return err
			}

			ids := args
			if len(ids) == 0 {
				ids, err = store.ListTemplates(cmd.Context())
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					printInfo("No templates found in %s", dir)
					return nil
				}
			}

			failed := 0
			for _, id := range ids {
				if problems := validateTemplate(cmd.Context(), store, id); len(problems) > 0 {
					failed++
					printError("%s", id)
					for _, p := range problems {
						printDetail("%s", p)
					}
				} else {
					printSuccess("%s", id)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d template(s) failed validation", failed, len(ids))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&templateDir, "templates", "t", "", "template directory (default from templar.toml, else ./templates)")
	return cmd
}

// validateTemplate loads one manifest and returns its problems.
func validateTemplate(ctx context.Context, store *local.Store, id string) []string {
	m, err := store.LoadManifest(ctx, id)
	if err != nil {
		return []string{tmplerrors.UserMessage(err)}
	}

	var problems []string
	for _, f := range m.Files {
		if err := tmplerrors.ValidatePath(f.Path); err != nil {
			problems = append(problems, fmt.Sprintf("file %s: %s", f.Path, tmplerrors.UserMessage(err)))
		}
	}
	for _, d := range m.Dependencies {
		if !d.Kind.Valid() {
			problems = append(problems, fmt.Sprintf("dependency %s: unknown kind %q", d.Name, d.Kind))
		}
	}
	if m.Extends != "" {
		if _, err := store.LoadManifest(ctx, m.Extends); err != nil {
			problems = append(problems, fmt.Sprintf("extends %s: %s", m.Extends, tmplerrors.UserMessage(err)))
		}
	}
	return problems
}
