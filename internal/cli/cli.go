// Package cli implements the templar command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/templar-cli/templar/pkg/buildinfo"
	"github.com/templar-cli/templar/pkg/cache"
	"github.com/templar-cli/templar/pkg/pipeline"
	"github.com/templar-cli/templar/pkg/registry"
	"github.com/templar-cli/templar/pkg/store/local"
	"github.com/templar-cli/templar/pkg/template"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "templar"

	// defaultTemplateDir is where templates live when no config names one.
	defaultTemplateDir = "templates"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *Config
}

// New creates a new CLI instance with a default logger and the project
// config discovered from the working directory.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DiscoverConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "templar",
		Short:        "Templar scaffolds projects from composable templates",
		Long:         `Templar is a CLI tool for generating project scaffolding from templates that can inherit from other templates, depend on them by version, and be composed into a single output tree.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.newCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.chainCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Template Sources
// =============================================================================

// sourceFlags are the flags every pipeline-running command shares.
type sourceFlags struct {
	templateDir string
	registryURL string
	noCache     bool
}

func (c *CLI) addSourceFlags(cmd *cobra.Command, f *sourceFlags) {
	cmd.Flags().StringVarP(&f.templateDir, "templates", "t", "", "template directory (default from templar.toml, else ./templates)")
	cmd.Flags().StringVar(&f.registryURL, "registry", "", "registry URL (overrides the local template directory)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// openSource builds the template store and catalog from flags and config.
// A registry URL wins over a local directory.
func (c *CLI) openSource(f sourceFlags) (template.Store, template.Catalog, error) {
	registryURL := f.registryURL
	if registryURL == "" {
		registryURL = c.Config.Registry.URL
	}
	if registryURL != "" {
		client, err := registry.NewClient(registryURL, registry.ClientOptions{
			Cache: c.newCache(f.noCache),
			Token: c.Config.Registry.Token,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	}

	dir := f.templateDir
	if dir == "" {
		dir = c.Config.TemplateDir
	}
	if dir == "" {
		dir = defaultTemplateDir
	}
	store, err := local.New(dir)
	if err != nil {
		return nil, nil, err
	}
	return store, store, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(f sourceFlags) (*pipeline.Runner, error) {
	store, catalog, err := c.openSource(f)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, catalog, c.newCache(f.noCache), nil), nil
}

func (c *CLI) newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}

// pipelineOptions builds pipeline options from config plus per-command
// overrides.
func (c *CLI) pipelineOptions(templateID, strategy string, refresh bool) pipeline.Options {
	if strategy == "" {
		strategy = c.Config.DefaultStrategy
	}
	opts := pipeline.Options{
		TemplateID:      templateID,
		MaxDepth:        c.Config.MaxDepth,
		DefaultStrategy: strategy,
		Refresh:         refresh,
		Logger:          c.Logger,
	}
	for _, r := range c.Config.Rules {
		opts.Rules = append(opts.Rules, pipeline.StrategyRule{
			Pattern:  r.Pattern,
			Strategy: r.Strategy,
		})
	}
	return opts
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/templar/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
