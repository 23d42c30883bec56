package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	tmplerrors "github.com/templar-cli/templar/pkg/errors"
	"github.com/templar-cli/templar/pkg/emit"
	"github.com/templar-cli/templar/pkg/pipeline"
)

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		source   sourceFlags
		output   string
		strategy string
		dryRun   bool
		force    bool
		refresh  bool
	)

	cmd := &cobra.Command{
		Use:   "generate <template[@version]>",
		Short: "Generate a project from a template",
		Long: `Generate a project from a template.

The template's inheritance chain is walked, its dependencies are resolved
to concrete versions, and the chain's files are composed into a single
output tree. A bare template name uses the highest published version.

Results are cached locally; use --refresh to recompute.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd.Context(), args[0], generateOpts{
				source:   source,
				output:   output,
				strategy: strategy,
				dryRun:   dryRun,
				force:    force,
				refresh:  refresh,
			})
		},
	}

	c.addSourceFlags(cmd, &source)
	cmd.Flags().StringVarP(&output, "out", "o", ".", "output directory")
	cmd.Flags().StringVar(&strategy, "strategy", "", "default composition strategy: replace, override, merge")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list files without writing them")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the result cache")

	return cmd
}

type generateOpts struct {
	source   sourceFlags
	output   string
	strategy string
	dryRun   bool
	force    bool
	refresh  bool
}

// runGenerate executes the pipeline and emits the composed template. It is
// shared by "generate" and "new".
func (c *CLI) runGenerate(ctx context.Context, templateID string, opts generateOpts) error {
	res, err := c.execute(ctx, templateID, opts.source, opts.strategy, opts.refresh)
	if err != nil {
		return err
	}
	if !c.reportProblems(res) {
		return fmt.Errorf("cannot generate %s", templateID)
	}

	emitter, err := emit.New(opts.output, emit.Options{DryRun: opts.dryRun, Force: opts.force})
	if err != nil {
		return err
	}
	report, err := emitter.Emit(res.Template)
	if err != nil {
		return err
	}

	printSuccess("Generated %s", StyleHighlight.Render(res.TemplateID))
	for _, path := range report.Written {
		printFile(path)
	}
	for _, path := range report.Skipped {
		printDetail("skipped %s (exists, use --force)", path)
	}
	printRunStats(res)
	if opts.dryRun {
		printDetail("dry run: nothing was written")
	}
	return nil
}

// execute runs the pipeline with a spinner and shared warning output.
func (c *CLI) execute(ctx context.Context, templateID string, source sourceFlags, strategy string, refresh bool) (*pipeline.Result, error) {
	runner, err := c.newRunner(source)
	if err != nil {
		return nil, err
	}

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Resolving %s...", templateID))
	spinner.Start()

	res, err := runner.Execute(ctx, c.pipelineOptions(templateID, strategy, refresh))
	spinner.Stop()
	if err != nil {
		return nil, fmt.Errorf("%s", tmplerrors.UserMessage(err))
	}
	prog.done(fmt.Sprintf("Resolved %d dependencies", len(res.Versions)))

	for _, w := range res.Warnings {
		printWarning("%s", w)
	}
	return res, nil
}

// reportProblems prints conflicts and composition errors. It returns true
// when the result is usable.
func (c *CLI) reportProblems(res *pipeline.Result) bool {
	if len(res.Conflicts) > 0 {
		printError("%d dependency conflict(s)", len(res.Conflicts))
		fmt.Println(renderConflictTable(res.Conflicts))
	}
	for _, err := range res.ComposeErrors {
		printError("%s", err)
	}
	return res.OK()
}
