// Package inherit resolves template inheritance chains.
//
// A template may extend one parent template; following the extends
// references from a requested leaf produces an ordered chain, root first,
// that the composition engine merges into a single resolved template.
// Chain walking is bounded by a configurable maximum depth, and both
// cycles and depth overruns are fatal errors carrying the full offending
// path.
//
// Chains are built fresh per request and discarded afterwards; nodes
// reference their parent by template ID rather than by pointer, so a chain
// owns its nodes outright.
package inherit

import (
	"context"
	"fmt"
	"strings"

	"github.com/templar-cli/templar/pkg/template"
)

// DefaultMaxDepth bounds inheritance chains when no explicit limit is set.
// Ten levels is far beyond any sane template hierarchy; deeper chains are
// almost always an authoring mistake or a cycle.
const DefaultMaxDepth = 10

// CycleError reports an extends cycle. Path is the full walk from the
// requested leaf to the repeated template, ending with the repeat.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("inheritance cycle: %s", strings.Join(e.Path, " -> "))
}

// DepthError reports a chain exceeding the configured maximum depth.
// Path is the walk up to the point the limit was hit.
type DepthError struct {
	MaxDepth int
	Path     []string
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("inheritance chain exceeds max depth %d: %s",
		e.MaxDepth, strings.Join(e.Path, " -> "))
}

// Node is one template in a resolved chain. Depth is the distance from the
// requested leaf: the leaf has depth 0 and the root the largest depth.
// ParentID is the extends target, or "" for the root.
type Node struct {
	Template *template.Manifest
	Depth    int
	ParentID string
}

// Chain is a resolved inheritance chain, ordered root first and leaf last.
// It owns its nodes for the duration of one resolution; parent links are
// ID lookups into the chain, never pointers.
type Chain struct {
	nodes []Node
	index map[string]int // templateID -> position in nodes
}

// Nodes returns the chain root-first. The slice is a read-only view.
func (c *Chain) Nodes() []Node { return c.nodes }

// Len returns the number of templates in the chain.
func (c *Chain) Len() int { return len(c.nodes) }

// Root returns the chain's root node.
func (c *Chain) Root() Node { return c.nodes[0] }

// Leaf returns the requested leaf node.
func (c *Chain) Leaf() Node { return c.nodes[len(c.nodes)-1] }

// ByID returns the chain node for a template ID and true, or false when
// the template is not on the chain.
func (c *Chain) ByID(templateID string) (Node, bool) {
	i, ok := c.index[templateID]
	if !ok {
		return Node{}, false
	}
	return c.nodes[i], true
}

// IDs returns the template IDs root-first.
func (c *Chain) IDs() []string {
	ids := make([]string, len(c.nodes))
	for i, n := range c.nodes {
		ids[i] = n.Template.ID
	}
	return ids
}

// Dependencies returns every dependency declared anywhere on the chain,
// root-first then declaration order. This is the root set handed to the
// dependency resolver.
func (c *Chain) Dependencies() []template.Dependency {
	var deps []template.Dependency
	for _, n := range c.nodes {
		deps = append(deps, n.Template.Dependencies...)
	}
	return deps
}

// Requirements returns the chain's dependencies attributed to the template
// that declared each one, root-first then declaration order.
func (c *Chain) Requirements() []template.Requirement {
	var reqs []template.Requirement
	for _, n := range c.nodes {
		for _, d := range n.Template.Dependencies {
			reqs = append(reqs, template.Requirement{RequestedBy: n.Template.ID, Dependency: d})
		}
	}
	return reqs
}

// Options configures chain resolution.
type Options struct {
	// MaxDepth bounds how many ancestors a leaf may have (default:
	// DefaultMaxDepth). A chain needing an ancestor at depth MaxDepth+1
	// is rejected rather than silently truncated.
	MaxDepth int
	// DefaultStrategy applies to fragments with no explicit or
	// template-level strategy. Recorded on the chain's resolver for the
	// composition stage to pick up.
	DefaultStrategy template.Strategy
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return opts
}

// Resolver walks extends chains against a template store.
// A Resolver is cheap and stateless; construct one per request or share
// freely - it holds no mutable state.
type Resolver struct {
	store template.Store
	opts  Options
}

// New creates a chain resolver reading manifests from store.
func New(store template.Store, opts Options) *Resolver {
	return &Resolver{store: store, opts: opts.WithDefaults()}
}

// DefaultStrategy returns the configured chain-wide default strategy.
func (r *Resolver) DefaultStrategy() template.Strategy { return r.opts.DefaultStrategy }

// ResolveChain walks the extends references from leafID and returns the
// chain ordered root-first. A template that extends nothing is its own
// one-element chain.
//
// Fatal conditions: a repeated template ID on the path (*CycleError), a
// path longer than MaxDepth (*DepthError), and a manifest that fails to
// load (the store's error, wrapped with the walk position).
func (r *Resolver) ResolveChain(ctx context.Context, leafID string) (*Chain, error) {
	// Walk leaf -> root, guarding against cycles and runaway depth.
	var path []*template.Manifest
	onPath := make(map[string]bool)

	current := leafID
	for {
		if onPath[current] {
			ids := manifestIDs(path)
			return nil, &CycleError{Path: append(ids, current)}
		}
		if len(path) > r.opts.MaxDepth {
			return nil, &DepthError{MaxDepth: r.opts.MaxDepth, Path: manifestIDs(path)}
		}

		m, err := r.store.LoadManifest(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("load manifest %s (extends chain of %s): %w", current, leafID, err)
		}

		path = append(path, m)
		onPath[m.ID] = true
		// The store may canonicalize the requested ID (e.g. resolve a bare
		// name to name@version); track both spellings on the path.
		onPath[current] = true

		if m.IsRoot() {
			break
		}
		current = m.Extends
	}

	// Reverse to root-first and assign depths as distance from the leaf.
	chain := &Chain{
		nodes: make([]Node, len(path)),
		index: make(map[string]int, len(path)),
	}
	for i, m := range path {
		pos := len(path) - 1 - i // root-first position
		node := Node{Template: m, Depth: i}
		if !m.IsRoot() {
			node.ParentID = m.Extends
		}
		chain.nodes[pos] = node
		chain.index[m.ID] = pos
	}
	return chain, nil
}

func manifestIDs(path []*template.Manifest) []string {
	ids := make([]string, len(path))
	for i, m := range path {
		ids[i] = m.ID
	}
	return ids
}
