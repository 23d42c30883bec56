package registry

import (
	"fmt"

	tmplerrors "github.com/templar-cli/templar/pkg/errors"
	"github.com/templar-cli/templar/pkg/semver"
	"github.com/templar-cli/templar/pkg/template"
)

// ManifestDoc is the wire and storage form of a template manifest, shared
// by the HTTP API and the Mongo-backed store. Versions and constraints
// travel as strings and are parsed at the boundary.
type ManifestDoc struct {
	Name     string `json:"name" bson:"name"`
	Version  string `json:"version" bson:"version"`
	Extends  string `json:"extends,omitempty" bson:"extends,omitempty"`
	Strategy string `json:"strategy,omitempty" bson:"strategy,omitempty"`

	Dependencies []DependencyDoc `json:"dependencies,omitempty" bson:"dependencies,omitempty"`
	Files        []FragmentDoc   `json:"files,omitempty" bson:"files,omitempty"`
	Parameters   []ParameterDoc  `json:"parameters,omitempty" bson:"parameters,omitempty"`
}

// DependencyDoc is the wire form of a dependency declaration.
type DependencyDoc struct {
	Name       string `json:"name" bson:"name"`
	Constraint string `json:"constraint" bson:"constraint"`
	Kind       string `json:"kind,omitempty" bson:"kind,omitempty"`
	Optional   bool   `json:"optional,omitempty" bson:"optional,omitempty"`
}

// FragmentDoc is the wire form of a file fragment.
type FragmentDoc struct {
	Path     string `json:"path" bson:"path"`
	Content  string `json:"content" bson:"content"`
	Priority int    `json:"priority,omitempty" bson:"priority,omitempty"`
	Strategy string `json:"strategy,omitempty" bson:"strategy,omitempty"`
}

// ParameterDoc is the wire form of a parameter declaration.
type ParameterDoc struct {
	Name        string   `json:"name" bson:"name"`
	Type        string   `json:"type" bson:"type"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	Default     any      `json:"default,omitempty" bson:"default,omitempty"`
	Required    bool     `json:"required,omitempty" bson:"required,omitempty"`
	Pattern     string   `json:"pattern,omitempty" bson:"pattern,omitempty"`
	Choices     []string `json:"choices,omitempty" bson:"choices,omitempty"`
}

// ToManifest parses the document into the core manifest type.
func (d *ManifestDoc) ToManifest() (*template.Manifest, error) {
	version, err := semver.Parse(d.Version)
	if err != nil {
		return nil, tmplerrors.Wrap(tmplerrors.ErrCodeInvalidManifest, err,
			"template %s: invalid version %q", d.Name, d.Version)
	}
	strategy, err := template.ParseStrategy(d.Strategy)
	if err != nil {
		return nil, tmplerrors.Wrap(tmplerrors.ErrCodeInvalidManifest, err, "template %s", d.Name)
	}

	id := fmt.Sprintf("%s@%s", d.Name, version)
	m := &template.Manifest{
		ID:              id,
		Name:            d.Name,
		Version:         version,
		Extends:         d.Extends,
		DefaultStrategy: strategy,
	}

	for _, dep := range d.Dependencies {
		constraint, err := semver.ParseConstraint(dep.Constraint)
		if err != nil {
			return nil, tmplerrors.Wrap(tmplerrors.ErrCodeInvalidManifest, err,
				"template %s: dependency %s", d.Name, dep.Name)
		}
		kind := template.DependencyKind(dep.Kind)
		if !kind.Valid() {
			return nil, tmplerrors.New(tmplerrors.ErrCodeInvalidManifest,
				"template %s: dependency %s: unknown kind %q", d.Name, dep.Name, dep.Kind)
		}
		m.Dependencies = append(m.Dependencies, template.Dependency{
			Name:       dep.Name,
			Constraint: constraint,
			Kind:       kind,
			Optional:   dep.Optional,
		})
	}

	for _, f := range d.Files {
		strategy, err := template.ParseStrategy(f.Strategy)
		if err != nil {
			return nil, tmplerrors.Wrap(tmplerrors.ErrCodeInvalidManifest, err,
				"template %s: file %s", d.Name, f.Path)
		}
		m.Files = append(m.Files, template.Fragment{
			TemplateID: id,
			Path:       f.Path,
			Content:    f.Content,
			Priority:   f.Priority,
			Strategy:   strategy,
		})
	}

	for _, p := range d.Parameters {
		m.Parameters = append(m.Parameters, template.Parameter{
			Name:        p.Name,
			Type:        p.Type,
			Description: p.Description,
			Default:     p.Default,
			Required:    p.Required,
			Pattern:     p.Pattern,
			Choices:     p.Choices,
		})
	}

	return m, nil
}

// FromManifest converts a core manifest into its wire form.
func FromManifest(m *template.Manifest) *ManifestDoc {
	doc := &ManifestDoc{
		Name:     m.Name,
		Version:  m.Version.String(),
		Extends:  m.Extends,
		Strategy: string(m.DefaultStrategy),
	}
	for _, dep := range m.Dependencies {
		constraint := "*"
		if dep.Constraint != nil {
			constraint = dep.Constraint.String()
		}
		doc.Dependencies = append(doc.Dependencies, DependencyDoc{
			Name:       dep.Name,
			Constraint: constraint,
			Kind:       string(dep.Kind),
			Optional:   dep.Optional,
		})
	}
	for _, f := range m.Files {
		doc.Files = append(doc.Files, FragmentDoc{
			Path:     f.Path,
			Content:  f.Content,
			Priority: f.Priority,
			Strategy: string(f.Strategy),
		})
	}
	for _, p := range m.Parameters {
		doc.Parameters = append(doc.Parameters, ParameterDoc{
			Name:        p.Name,
			Type:        p.Type,
			Description: p.Description,
			Default:     p.Default,
			Required:    p.Required,
			Pattern:     p.Pattern,
			Choices:     p.Choices,
		})
	}
	return doc
}
