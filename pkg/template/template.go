// Package template defines the value types shared by the resolution,
// inheritance, and composition engines: dependencies, file fragments,
// parameters, and template manifests, plus the collaborator interfaces
// (Store, Catalog) that supply them.
//
// All types here are plain values constructed fresh per resolution request.
// Nothing in this package performs I/O; loading manifests from disk or a
// registry is the job of pkg/store and pkg/registry.
package template

import (
	"context"

	"github.com/templar-cli/templar/pkg/semver"
)

// DependencyKind classifies how a dependency participates in resolution.
type DependencyKind string

const (
	// KindRuntime dependencies are resolved and composed into the output.
	KindRuntime DependencyKind = "runtime"
	// KindDev dependencies are resolved but excluded from the composition
	// order handed to emission.
	KindDev DependencyKind = "dev"
	// KindPeer dependencies contribute version constraints only; their own
	// dependencies are never expanded.
	KindPeer DependencyKind = "peer"
)

// Valid reports whether k is a known dependency kind.
// The empty string is valid and treated as KindRuntime.
func (k DependencyKind) Valid() bool {
	switch k {
	case "", KindRuntime, KindDev, KindPeer:
		return true
	}
	return false
}

// OrRuntime returns the kind with the empty string defaulted to KindRuntime.
func (k DependencyKind) OrRuntime() DependencyKind {
	if k == "" {
		return KindRuntime
	}
	return k
}

// Dependency is a template's declared requirement on another template.
// Many templates may declare a dependency on the same name with different
// constraints; reconciling those is the resolver's job.
type Dependency struct {
	Name       string
	Constraint semver.Constraint
	Kind       DependencyKind
	Optional   bool
}

// Fragment is one template's contribution to a single output file path.
// Fragments are immutable; multiple fragments may target the same path and
// are combined by the composition engine, never mutated in place.
type Fragment struct {
	TemplateID string
	Path       string
	Content    string
	// Priority orders fragments merged into the same slot. Lower values
	// are emitted first.
	Priority int
	// Strategy is the optional per-file strategy. Empty means "inherit
	// from the template default or composition config".
	Strategy Strategy
}

// Requirement is a dependency paired with the template that declared it.
// The resolver works on requirements so that conflicts can name every
// requesting template, not just the constraint set.
type Requirement struct {
	RequestedBy string // template ID of the declaring template
	Dependency
}

// Parameter is a user-facing input declared by a template.
type Parameter struct {
	Name        string
	Type        string // "string", "bool", "int", "choice"
	Description string
	Default     any
	Required    bool
	// Pattern optionally restricts string values (RE2 syntax).
	Pattern string
	// Choices restricts values when Type is "choice".
	Choices []string
}

// Manifest is a template's parsed declaration: identity, lineage,
// dependencies, file fragments, and parameters. Manifests arrive here
// already decoded; no file format is owned by the core.
type Manifest struct {
	ID      string
	Name    string
	Version semver.Version
	// Extends names the parent template, or "" for a root template.
	Extends string
	// DefaultStrategy applies to fragments with no explicit strategy.
	DefaultStrategy Strategy
	Dependencies    []Dependency
	Files           []Fragment
	Parameters      []Parameter
}

// IsRoot reports whether the template extends nothing.
func (m *Manifest) IsRoot() bool { return m.Extends == "" }

// DependenciesOfKind returns the declared dependencies matching kind,
// treating an empty kind on a dependency as runtime.
func (m *Manifest) DependenciesOfKind(kind DependencyKind) []Dependency {
	var out []Dependency
	for _, d := range m.Dependencies {
		if d.Kind.OrRuntime() == kind {
			out = append(out, d)
		}
	}
	return out
}

// Store supplies parsed template manifests by ID.
// Implementations live outside the core (filesystem store, HTTP registry,
// mongo-backed registry) and may cache internally; the core never does.
type Store interface {
	// LoadManifest returns the manifest for the given template ID.
	// Implementations return an error carrying ErrCodeTemplateNotFound
	// when the template does not exist.
	LoadManifest(ctx context.Context, templateID string) (*Manifest, error)
}

// Catalog supplies the versions known to exist for a dependency name.
type Catalog interface {
	// CandidateVersions returns all published versions for name,
	// in no particular order.
	CandidateVersions(ctx context.Context, name string) ([]semver.Version, error)
}
