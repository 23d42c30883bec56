// Package resolver selects one concrete version per dependency name for a
// set of declared template requirements.
//
// Resolution expands the requirements breadth-first into a dependency
// graph, collects every constraint declared against each name anywhere in
// the graph, and picks the highest catalog version satisfying all of them.
// Unsatisfiable names are reported as conflicts without aborting the run,
// so callers always see the complete conflict set; dependency cycles are
// fatal and carry every cycle path.
//
// A Resolver performs no I/O of its own - manifests and candidate versions
// come from the [template.Store] and [template.Catalog] collaborators, and
// all state is request-scoped.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/templar-cli/templar/pkg/dag"
	"github.com/templar-cli/templar/pkg/semver"
	"github.com/templar-cli/templar/pkg/template"
)

// RootNodeID is the synthetic graph node that anchors the caller's root
// requirements. It never appears in the installation order.
const RootNodeID = "__root__"

// DefaultMaxNodes bounds graph expansion as a safety net against
// pathological dependency fan-out.
const DefaultMaxNodes = 5000

// CycleError is the fatal error returned when the dependency graph
// contains cycles. Every cycle is reported with its full path.
type CycleError struct {
	Cycles [][]string
}

func (e *CycleError) Error() string {
	paths := make([]string, len(e.Cycles))
	for i, c := range e.Cycles {
		paths[i] = strings.Join(c, " -> ")
	}
	return fmt.Sprintf("dependency cycle(s): %s", strings.Join(paths, "; "))
}

// Options configures resolution behavior.
type Options struct {
	// MaxNodes caps the number of distinct dependency names expanded
	// (default: DefaultMaxNodes).
	MaxNodes int
	// Logger receives progress and non-fatal diagnostics (optional).
	Logger func(string, ...any)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Resolver resolves dependency requirements against a store and catalog.
// Construct one per request; it holds only request-scoped state supplied
// by the caller.
type Resolver struct {
	store   template.Store
	catalog template.Catalog
	opts    Options
}

// New creates a Resolver reading manifests from store and candidate
// versions from catalog.
func New(store template.Store, catalog template.Catalog, opts Options) *Resolver {
	return &Resolver{store: store, catalog: catalog, opts: opts.WithDefaults()}
}

// constraintRecord is one declaration of a constraint against a name.
type constraintRecord struct {
	constraint  semver.Constraint
	requestedBy string
}

// run holds the working state of a single Resolve call.
type run struct {
	*Resolver

	ctx   context.Context
	graph *dag.Graph

	names       []string // first-seen order of dependency names
	constraints map[string][]constraintRecord
	optional    map[string]bool // true while every requester marks the name optional
	expanded    map[string]bool
	candidates  map[string][]semver.Version // catalog results, one fetch per name

	conflicts []Conflict
	warnings  []string
}

// Resolve expands reqs into a dependency graph and selects one version per
// name. Conflicts (unsatisfiable constraint sets, missing catalogs,
// unloadable transitive manifests) are collected in the result rather than
// aborting, so the caller sees every problem at once.
//
// Fatal conditions return an error instead of a result: a cycle anywhere
// in the graph (*CycleError, with all cycle paths) and a root-declared
// requirement whose manifest cannot be loaded.
func (r *Resolver) Resolve(ctx context.Context, reqs []template.Requirement) (*Result, error) {
	start := time.Now()

	s := &run{
		Resolver:    r,
		ctx:         ctx,
		graph:       dag.New(),
		constraints: make(map[string][]constraintRecord),
		optional:    make(map[string]bool),
		expanded:    make(map[string]bool),
		candidates:  make(map[string][]semver.Version),
	}
	_ = s.graph.AddNode(dag.Node{TemplateID: RootNodeID, Name: RootNodeID})

	if err := s.expand(reqs); err != nil {
		return nil, err
	}

	// Cycles are fatal: no partial graph or order is returned.
	if cycles := s.graph.FindCycles(); len(cycles) > 0 {
		return nil, &CycleError{Cycles: cycles}
	}

	versions := s.selectVersions()

	order, err := s.graph.TopoSort()
	if err != nil {
		// FindCycles returned clean, so a full order must exist.
		return nil, err
	}
	order = withoutRoot(order)

	return &Result{
		Versions:  versions,
		Conflicts: s.conflicts,
		Warnings:  s.warnings,
		Order:     order,
		Graph:     s.graph,
		Duration:  time.Since(start),
	}, nil
}

// expand runs the breadth-first graph construction from the root set.
func (s *run) expand(reqs []template.Requirement) error {
	type item struct {
		req    template.Requirement
		source string // graph node declaring the dependency
		isRoot bool
	}

	queue := make([]item, 0, len(reqs))
	for _, req := range reqs {
		queue = append(queue, item{req: req, source: RootNodeID, isRoot: true})
	}

	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		if err := s.ctx.Err(); err != nil {
			return err
		}

		name := it.req.Name
		s.record(name, it.req)
		_ = s.graph.AddNode(dag.Node{TemplateID: name, Name: name})
		_ = s.graph.AddEdge(it.source, name)

		// Peer dependencies contribute constraints only.
		if it.req.Kind.OrRuntime() == template.KindPeer {
			continue
		}
		if s.expanded[name] {
			continue
		}
		if len(s.expanded) >= s.opts.MaxNodes {
			s.opts.Logger("max nodes reached (%d), not expanding %s", s.opts.MaxNodes, name)
			continue
		}
		s.expanded[name] = true

		manifest, ok, err := s.loadBest(name, it.req)
		if err != nil {
			if it.isRoot && !it.req.Optional {
				return fmt.Errorf("root dependency %s: %w", name, err)
			}
			s.conflict(name, err.Error())
			continue
		}
		if !ok {
			continue // conflict or warning already recorded
		}

		node, _ := s.graph.Node(name)
		node.Dependencies = manifest.Dependencies

		for _, dep := range manifest.Dependencies {
			queue = append(queue, item{
				req:    template.Requirement{RequestedBy: manifest.ID, Dependency: dep},
				source: name,
			})
		}
	}
	return nil
}

// record tracks a constraint declaration against a name, preserving
// first-seen name order and declaration order within a name.
func (s *run) record(name string, req template.Requirement) {
	if _, seen := s.constraints[name]; !seen {
		s.names = append(s.names, name)
		s.optional[name] = true
	}
	s.constraints[name] = append(s.constraints[name], constraintRecord{
		constraint:  req.Constraint,
		requestedBy: req.RequestedBy,
	})
	if !req.Optional {
		s.optional[name] = false
	}
}

// loadBest finds the highest candidate satisfying the constraints known so
// far for name and loads its manifest. Returns ok=false (with a conflict
// or warning recorded) when no candidate fits; returns an error only when
// the manifest itself cannot be loaded.
func (s *run) loadBest(name string, req template.Requirement) (*template.Manifest, bool, error) {
	candidates, err := s.candidatesFor(name)
	if err != nil {
		return nil, false, err
	}
	if len(candidates) == 0 {
		if req.Optional {
			s.warn("optional dependency %s has no published versions", name)
		} else {
			s.conflict(name, "no published versions")
		}
		return nil, false, nil
	}

	best, ok := semver.MaxSatisfying(candidates, s.constraintsFor(name))
	if !ok {
		// The full conflict is reported during final selection, where
		// every requester is known.
		return nil, false, nil
	}

	manifest, err := s.store.LoadManifest(s.ctx, name+"@"+best.String())
	if err != nil {
		return nil, false, err
	}
	return manifest, true, nil
}

func (s *run) candidatesFor(name string) ([]semver.Version, error) {
	if versions, ok := s.candidates[name]; ok {
		return versions, nil
	}
	versions, err := s.catalog.CandidateVersions(s.ctx, name)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup for %s: %w", name, err)
	}
	semver.Sort(versions)
	s.candidates[name] = versions
	return versions, nil
}

func (s *run) constraintsFor(name string) []semver.Constraint {
	records := s.constraints[name]
	constraints := make([]semver.Constraint, 0, len(records))
	for _, rec := range records {
		c := rec.constraint
		if c == nil {
			c = semver.Range{} // unconstrained declaration
		}
		constraints = append(constraints, c)
	}
	return constraints
}

// selectVersions runs the final per-name selection over the complete
// constraint sets and marks resolved graph nodes.
func (s *run) selectVersions() map[string]semver.Version {
	versions := make(map[string]semver.Version, len(s.names))

	for _, name := range s.names {
		candidates := s.candidates[name]
		if len(candidates) == 0 {
			continue // missing catalog already recorded during expansion
		}

		best, ok := semver.MaxSatisfying(candidates, s.constraintsFor(name))
		if !ok {
			if s.optional[name] {
				s.warn("optional dependency %s has no version satisfying %s",
					name, constraintSummary(s.constraints[name]))
				continue
			}
			s.conflicts = append(s.conflicts, s.unsatisfiable(name))
			continue
		}

		versions[name] = best
		if node, found := s.graph.Node(name); found {
			node.Version = best.String()
			node.Resolved = true
		}
	}
	return versions
}

func (s *run) unsatisfiable(name string) Conflict {
	records := s.constraints[name]
	c := Conflict{Name: name, Reason: "no version satisfies all constraints"}
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		c.Constraints = append(c.Constraints, rec.constraint)
		if !seen[rec.requestedBy] {
			seen[rec.requestedBy] = true
			c.RequestedBy = append(c.RequestedBy, rec.requestedBy)
		}
	}
	return c
}

func (s *run) conflict(name, reason string) {
	var requesters []string
	seen := make(map[string]bool)
	for _, rec := range s.constraints[name] {
		if !seen[rec.requestedBy] {
			seen[rec.requestedBy] = true
			requesters = append(requesters, rec.requestedBy)
		}
	}
	s.conflicts = append(s.conflicts, Conflict{
		Name:        name,
		Reason:      reason,
		RequestedBy: requesters,
	})
}

func (s *run) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.warnings = append(s.warnings, msg)
	s.opts.Logger("%s", msg)
}

func withoutRoot(order []string) []string {
	out := make([]string, 0, len(order))
	for _, id := range order {
		if id != RootNodeID {
			out = append(out, id)
		}
	}
	return out
}

func constraintSummary(records []constraintRecord) string {
	parts := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.constraint == nil {
			parts = append(parts, "*")
			continue
		}
		parts = append(parts, rec.constraint.String())
	}
	return strings.Join(parts, ", ")
}
