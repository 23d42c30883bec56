// Package compose merges a resolved inheritance chain into a single
// template definition.
//
// For every output path the engine gathers the fragments contributed by
// each template on the chain and applies one strategy: replace (leaf wins,
// ancestors discarded), override (leaf wins, shadowed ancestors warned
// about), or merge (all fragments combined through named slots). Parameters
// are merged as a union across the chain with the leaf-most declaration's
// metadata winning.
//
// Composition is pure and idempotent: the same chain and config always
// produce a byte-identical result, and no fragment is ever dropped
// silently - every one is merged, reported shadowed, or named in an error.
package compose

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/templar-cli/templar/pkg/inherit"
	"github.com/templar-cli/templar/pkg/template"
)

// StrategyDecl records one template's explicit strategy claim on a path.
type StrategyDecl struct {
	TemplateID string
	Strategy   template.Strategy
}

// StrategyConflictError reports two templates declaring incompatible
// explicit strategies for the same path. The path is skipped; composition
// of other paths continues.
type StrategyConflictError struct {
	Path         string
	Declarations []StrategyDecl
}

func (e *StrategyConflictError) Error() string {
	parts := make([]string, len(e.Declarations))
	for i, d := range e.Declarations {
		parts[i] = fmt.Sprintf("%s wants %s", d.TemplateID, d.Strategy)
	}
	return fmt.Sprintf("conflicting strategies for %s: %s", e.Path, strings.Join(parts, ", "))
}

// Warning is a non-fatal composition diagnostic.
type Warning struct {
	// Path is the output file the warning concerns.
	Path string
	// TemplateID is the template whose fragment triggered the warning.
	TemplateID string
	Message    string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s (%s): %s", w.Path, w.TemplateID, w.Message)
}

// Rule maps a path glob (doublestar syntax) to a strategy. Rules supply a
// strategy only when neither the fragment nor its template declares one;
// the last matching rule wins.
type Rule struct {
	Pattern  string
	Strategy template.Strategy
}

// Config controls strategy selection during composition.
type Config struct {
	// DefaultStrategy applies when no fragment, template, or rule decides
	// (default: StrategyReplace - the leaf-most fragment wins).
	DefaultStrategy template.Strategy
	Rules           []Rule
}

// WithDefaults returns a copy of Config with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	cfg := c
	if cfg.DefaultStrategy == template.StrategyUnset {
		cfg.DefaultStrategy = template.StrategyReplace
	}
	return cfg
}

// Engine composes inheritance chains under one strategy configuration.
// An Engine is stateless and safe for concurrent use.
type Engine struct {
	cfg Config
}

// New creates an Engine, validating the config's rule patterns and
// strategies up front so Compose never fails on configuration.
func New(cfg Config) (*Engine, error) {
	cfg = cfg.WithDefaults()
	if !cfg.DefaultStrategy.IsExplicit() {
		return nil, fmt.Errorf("invalid default strategy %q", cfg.DefaultStrategy)
	}
	for _, r := range cfg.Rules {
		if !doublestar.ValidatePattern(r.Pattern) {
			return nil, fmt.Errorf("invalid strategy rule pattern %q", r.Pattern)
		}
		if !r.Strategy.IsExplicit() {
			return nil, fmt.Errorf("invalid strategy %q for rule %q", r.Strategy, r.Pattern)
		}
	}
	return &Engine{cfg: cfg}, nil
}

// fragmentRef is a fragment together with its position on the chain.
type fragmentRef struct {
	frag     template.Fragment
	chainPos int // root-first index
}

// Compose merges the chain into one resolved template. The returned result
// always carries the full diagnostic picture: every path either appears in
// ProcessedFiles with its applied strategy, or is named by an error in
// Errors. Compose itself never fails; per-path strategy conflicts abort
// only that path.
func (e *Engine) Compose(chain *inherit.Chain) *Result {
	res := &Result{
		AppliedStrategies: make(map[string]template.Strategy),
	}

	// Gather fragments per path, preserving chain order (root first) and
	// first-seen path order for deterministic output.
	var paths []string
	byPath := make(map[string][]fragmentRef)
	for pos, node := range chain.Nodes() {
		for _, frag := range node.Template.Files {
			if _, seen := byPath[frag.Path]; !seen {
				paths = append(paths, frag.Path)
			}
			byPath[frag.Path] = append(byPath[frag.Path], fragmentRef{frag: frag, chainPos: pos})
		}
	}

	leaf := chain.Leaf().Template
	composed := &template.Manifest{
		ID:              leaf.ID,
		Name:            leaf.Name,
		Version:         leaf.Version,
		DefaultStrategy: e.cfg.DefaultStrategy,
		Dependencies:    chain.Dependencies(),
		Parameters:      mergeParameters(chain),
	}

	for _, path := range paths {
		refs := byPath[path]

		strategy, err := e.strategyFor(path, refs, chain)
		if err != nil {
			res.Errors = append(res.Errors, err)
			continue
		}

		var content string
		switch strategy {
		case template.StrategyReplace:
			content = refs[len(refs)-1].frag.Content
		case template.StrategyOverride:
			winner := refs[len(refs)-1]
			for _, ref := range refs[:len(refs)-1] {
				res.Warnings = append(res.Warnings, Warning{
					Path:       path,
					TemplateID: ref.frag.TemplateID,
					Message:    fmt.Sprintf("fragment shadowed by %s", winner.frag.TemplateID),
				})
			}
			content = winner.frag.Content
		case template.StrategyMerge:
			content = mergeFragments(refs)
		default:
			// New cannot be bypassed and validates every strategy source.
			panic(fmt.Sprintf("unknown strategy %q", strategy))
		}

		composed.Files = append(composed.Files, template.Fragment{
			TemplateID: leaf.ID,
			Path:       path,
			Content:    content,
			Strategy:   strategy,
		})
		res.AppliedStrategies[path] = strategy
		res.ProcessedFiles = append(res.ProcessedFiles, path)
	}

	res.Template = composed
	return res
}

// strategyFor resolves the strategy for one path. Precedence: explicit
// fragment strategy > template-level default > matching config rule >
// config default. Two distinct explicit fragment strategies are a
// conflict.
func (e *Engine) strategyFor(path string, refs []fragmentRef, chain *inherit.Chain) (template.Strategy, error) {
	var explicit []StrategyDecl
	for _, ref := range refs {
		if ref.frag.Strategy.IsExplicit() {
			explicit = append(explicit, StrategyDecl{
				TemplateID: ref.frag.TemplateID,
				Strategy:   ref.frag.Strategy,
			})
		}
	}
	if len(explicit) > 0 {
		for _, d := range explicit[1:] {
			if d.Strategy != explicit[0].Strategy {
				return template.StrategyUnset, &StrategyConflictError{Path: path, Declarations: explicit}
			}
		}
		return explicit[0].Strategy, nil
	}

	// Template-level default: the leaf-most contributing template decides.
	for i := len(refs) - 1; i >= 0; i-- {
		if node, ok := chain.ByID(refs[i].frag.TemplateID); ok {
			if s := node.Template.DefaultStrategy; s.IsExplicit() {
				return s, nil
			}
		}
	}

	// Config rules, last match wins.
	strategy := e.cfg.DefaultStrategy
	for _, r := range e.cfg.Rules {
		if ok, _ := doublestar.Match(r.Pattern, path); ok {
			strategy = r.Strategy
		}
	}
	return strategy, nil
}

// mergeFragments combines all fragments for one path through the slot
// system, in ascending priority then ascending chain position.
func mergeFragments(refs []fragmentRef) string {
	ordered := make([]fragmentRef, len(refs))
	copy(ordered, refs)
	// Stable insertion sort keeps chain position as the tie-break.
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].frag.Priority < ordered[j-1].frag.Priority; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	slots := NewSlotSystem()
	for _, ref := range ordered {
		slots.Register(ref.frag.Content)
	}
	return slots.Render()
}

// mergeParameters unions parameter declarations across the chain. The set
// of names is the union root-first; when a name repeats, the leaf-most
// declaration's metadata wins while keeping the first declaration's
// position.
func mergeParameters(chain *inherit.Chain) []template.Parameter {
	var order []string
	byName := make(map[string]template.Parameter)
	for _, node := range chain.Nodes() {
		for _, p := range node.Template.Parameters {
			if _, seen := byName[p.Name]; !seen {
				order = append(order, p.Name)
			}
			byName[p.Name] = p
		}
	}

	if len(order) == 0 {
		return nil
	}
	params := make([]template.Parameter, len(order))
	for i, name := range order {
		params[i] = byName[name]
	}
	return params
}
