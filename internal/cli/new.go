package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/templar-cli/templar/pkg/store/local"
)

// newCommand creates the "new" command: interactive template selection
// followed by generation.
func (c *CLI) newCommand() *cobra.Command {
	var (
		templateDir string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "new [output-dir]",
		Short: "Pick a template interactively and generate a project",
		Long: `Pick a template interactively and generate a project.

Lists the templates in the local template directory, lets you pick one,
and generates it into the output directory (default ".").`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := "."
			if len(args) == 1 {
				output = args[0]
			}

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

			entries, err := listEntries(cmd, store)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				printInfo("No templates found in %s", dir)
				return nil
			}

			model := NewTemplatePickerModel(entries)
			final, err := tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			picked, ok := final.(TemplatePickerModel)
			if !ok || picked.Selected == nil {
				printInfo("Nothing selected")
				return nil
			}

			templateID := fmt.Sprintf("%s@%s", picked.Selected.Name, picked.Selected.Version)
			printInfo("Generating %s", StyleHighlight.Render(templateID))
			return c.runGenerate(cmd.Context(), templateID, generateOpts{
				source: sourceFlags{templateDir: dir},
				output: output,
				force:  force,
			})
		},
	}

	cmd.Flags().StringVarP(&templateDir, "templates", "t", "", "template directory (default from templar.toml, else ./templates)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")

	return cmd
}

// listEntries builds picker rows from the local store: one row per
// template name, showing its highest published version.
func listEntries(cmd *cobra.Command, store *local.Store) ([]templateEntry, error) {
	names, err := store.ListTemplates(cmd.Context())
	if err != nil {
		return nil, err
	}

	var entries []templateEntry
	for _, name := range names {
		versions, err := store.CandidateVersions(cmd.Context(), name)
		if err != nil || len(versions) == 0 {
			continue
		}
		entry := templateEntry{
			Name:     name,
			Version:  versions[len(versions)-1].String(),
			Versions: len(versions),
		}
		if m, err := store.LoadManifest(cmd.Context(), name); err == nil {
			entry.Extends = m.Extends
			entry.Files = len(m.Files)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
