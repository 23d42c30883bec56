// Package pipeline provides the core generation pipeline for Templar.
//
// This package implements the complete chain -> resolve -> compose
// pipeline used by both the CLI and the registry server. Centralizing it
// keeps behavior consistent across entry points and puts result caching in
// one place.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Chain: walk the requested template's inheritance chain
//  2. Resolve: select one version per dependency declared on the chain
//  3. Compose: merge the chain into a single template definition
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(store, catalog, cache, nil, logger)
//	opts := pipeline.Options{TemplateID: "web-app"}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, f := range result.Template.Files {
//	    // hand to the emission stage
//	}
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/templar-cli/templar/pkg/cache"
	"github.com/templar-cli/templar/pkg/compose"
	tmplerrors "github.com/templar-cli/templar/pkg/errors"
	"github.com/templar-cli/templar/pkg/inherit"
	"github.com/templar-cli/templar/pkg/resolver"
	"github.com/templar-cli/templar/pkg/semver"
	"github.com/templar-cli/templar/pkg/template"
)

// Default limits, shared by CLI and server so behavior matches.
const (
	// DefaultMaxDepth bounds inheritance chains.
	DefaultMaxDepth = inherit.DefaultMaxDepth

	// DefaultMaxNodes bounds dependency graph expansion.
	DefaultMaxNodes = resolver.DefaultMaxNodes
)

// StrategyRule is the serializable form of a per-path strategy rule.
type StrategyRule struct {
	Pattern  string `json:"pattern"`
	Strategy string `json:"strategy"`
}

// Options contains all configuration for the generation pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// TemplateID is the requested template: a bare name or "name@version".
	TemplateID string `json:"template_id"`

	// Chain options
	MaxDepth int `json:"max_depth,omitempty"`

	// Resolve options
	MaxNodes int `json:"max_nodes,omitempty"`

	// Compose options
	DefaultStrategy string         `json:"default_strategy,omitempty"`
	Rules           []StrategyRule `json:"rules,omitempty"`

	// Refresh bypasses the result cache.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.TemplateID == "" {
		return tmplerrors.New(tmplerrors.ErrCodeInvalidInput, "template_id is required")
	}
	if err := tmplerrors.ValidateTemplateID(o.TemplateID); err != nil {
		return err
	}
	if _, err := template.ParseStrategy(o.DefaultStrategy); err != nil {
		return err
	}
	for _, r := range o.Rules {
		if _, err := template.ParseStrategy(r.Strategy); err != nil {
			return err
		}
	}

	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxNodes == 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// composeConfig builds the composition engine config from the options.
func (o *Options) composeConfig() compose.Config {
	cfg := compose.Config{
		DefaultStrategy: template.Strategy(o.DefaultStrategy),
	}
	for _, r := range o.Rules {
		cfg.Rules = append(cfg.Rules, compose.Rule{
			Pattern:  r.Pattern,
			Strategy: template.Strategy(r.Strategy),
		})
	}
	return cfg
}

// resultKeyOpts returns the cache key options for this run.
func (o *Options) resultKeyOpts() cache.ResultKeyOpts {
	ruleHash := ""
	for _, r := range o.Rules {
		ruleHash = cache.Hash([]byte(ruleHash + r.Pattern + "=" + r.Strategy))
	}
	return cache.ResultKeyOpts{
		DefaultStrategy: o.DefaultStrategy,
		MaxDepth:        o.MaxDepth,
		RuleHash:        ruleHash,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this execution for logs and API responses.
	RunID string

	// TemplateID is the canonical ID of the requested leaf template.
	TemplateID string

	// Template is the composed template definition.
	Template *template.Manifest

	// Versions maps each dependency name to its selected version.
	Versions map[string]semver.Version

	// Order lists dependency names so that every name appears after its
	// dependencies.
	Order []string

	// InstallOrder is Order restricted to runtime dependencies: names
	// reachable without traversing a dev-only declaration.
	InstallOrder []string

	// Conflicts holds unresolvable dependency names, empty on success.
	Conflicts []resolver.Conflict

	// ComposeErrors holds per-path composition failures.
	ComposeErrors []error

	// Warnings aggregates non-fatal diagnostics from every stage.
	Warnings []string

	// Chain, Resolution, and Composition expose the stage results.
	// They are nil when the run was served from the result cache.
	Chain       *inherit.Chain
	Resolution  *resolver.Result
	Composition *compose.Result

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the run was served from cache.
	CacheInfo CacheInfo
}

// OK reports whether the run produced a usable template: no dependency
// conflicts and no composition errors.
func (r *Result) OK() bool {
	return len(r.Conflicts) == 0 && len(r.ComposeErrors) == 0
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ChainLen      int
	NodeCount     int
	ConflictCount int
	FileCount     int
	ChainTime     time.Duration
	ResolveTime   time.Duration
	ComposeTime   time.Duration
}

// CacheInfo tracks cache usage for a pipeline run.
type CacheInfo struct {
	ResultHit bool // Whether the whole result came from cache
}
