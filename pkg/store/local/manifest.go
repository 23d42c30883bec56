package local

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	tmplerrors "github.com/templar-cli/templar/pkg/errors"
	"github.com/templar-cli/templar/pkg/semver"
	"github.com/templar-cli/templar/pkg/template"
)

// Manifest filenames recognized inside a version directory, in lookup
// order.
var manifestFilenames = []string{"template.toml", "template.yaml", "template.yml"}

// manifestFile is the on-disk manifest schema, shared between the TOML and
// YAML encodings.
type manifestFile struct {
	Template struct {
		Name     string `toml:"name" yaml:"name"`
		Version  string `toml:"version" yaml:"version"`
		Extends  string `toml:"extends" yaml:"extends"`
		Strategy string `toml:"strategy" yaml:"strategy"`
	} `toml:"template" yaml:"template"`

	Dependencies []struct {
		Name     string `toml:"name" yaml:"name"`
		Version  string `toml:"version" yaml:"version"`
		Kind     string `toml:"kind" yaml:"kind"`
		Optional bool   `toml:"optional" yaml:"optional"`
	} `toml:"dependencies" yaml:"dependencies"`

	Files []struct {
		Path     string `toml:"path" yaml:"path"`
		Strategy string `toml:"strategy" yaml:"strategy"`
		Priority int    `toml:"priority" yaml:"priority"`
	} `toml:"files" yaml:"files"`

	Parameters []struct {
		Name        string   `toml:"name" yaml:"name"`
		Type        string   `toml:"type" yaml:"type"`
		Description string   `toml:"description" yaml:"description"`
		Default     any      `toml:"default" yaml:"default"`
		Required    bool     `toml:"required" yaml:"required"`
		Pattern     string   `toml:"pattern" yaml:"pattern"`
		Choices     []string `toml:"choices" yaml:"choices"`
	} `toml:"parameters" yaml:"parameters"`
}

// decodeManifest parses raw manifest bytes according to the filename's
// extension.
func decodeManifest(filename string, data []byte) (*manifestFile, error) {
	var mf manifestFile
	switch {
	case strings.HasSuffix(filename, ".toml"):
		if err := toml.Unmarshal(data, &mf); err != nil {
			return nil, tmplerrors.Wrap(tmplerrors.ErrCodeInvalidManifest, err, "parse %s", filename)
		}
	case strings.HasSuffix(filename, ".yaml"), strings.HasSuffix(filename, ".yml"):
		if err := yaml.Unmarshal(data, &mf); err != nil {
			return nil, tmplerrors.Wrap(tmplerrors.ErrCodeInvalidManifest, err, "parse %s", filename)
		}
	default:
		return nil, tmplerrors.New(tmplerrors.ErrCodeInvalidManifest, "unsupported manifest format: %s", filename)
	}
	return &mf, nil
}

// toManifest converts the decoded file into the core manifest type,
// parsing versions, constraints, kinds, and strategies.
func (mf *manifestFile) toManifest() (*template.Manifest, error) {
	if mf.Template.Name == "" {
		return nil, tmplerrors.New(tmplerrors.ErrCodeInvalidManifest, "manifest missing template name")
	}
	version, err := semver.Parse(mf.Template.Version)
	if err != nil {
		return nil, tmplerrors.Wrap(tmplerrors.ErrCodeInvalidManifest, err,
			"template %s: invalid version %q", mf.Template.Name, mf.Template.Version)
	}
	defaultStrategy, err := template.ParseStrategy(mf.Template.Strategy)
	if err != nil {
		return nil, tmplerrors.Wrap(tmplerrors.ErrCodeInvalidManifest, err, "template %s", mf.Template.Name)
	}

	m := &template.Manifest{
		ID:              fmt.Sprintf("%s@%s", mf.Template.Name, version),
		Name:            mf.Template.Name,
		Version:         version,
		Extends:         mf.Template.Extends,
		DefaultStrategy: defaultStrategy,
	}

	for _, d := range mf.Dependencies {
		constraint, err := semver.ParseConstraint(d.Version)
		if err != nil {
			return nil, tmplerrors.Wrap(tmplerrors.ErrCodeInvalidManifest, err,
				"template %s: dependency %s", mf.Template.Name, d.Name)
		}
		kind := template.DependencyKind(d.Kind)
		if !kind.Valid() {
			return nil, tmplerrors.New(tmplerrors.ErrCodeInvalidManifest,
				"template %s: dependency %s: unknown kind %q", mf.Template.Name, d.Name, d.Kind)
		}
		m.Dependencies = append(m.Dependencies, template.Dependency{
			Name:       d.Name,
			Constraint: constraint,
			Kind:       kind,
			Optional:   d.Optional,
		})
	}

	for _, p := range mf.Parameters {
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

// fileSettings returns per-path strategy and priority overrides declared
// in the manifest's [[files]] entries.
func (mf *manifestFile) fileSettings() (map[string]fileSetting, error) {
	if len(mf.Files) == 0 {
		return nil, nil
	}
	settings := make(map[string]fileSetting, len(mf.Files))
	for _, f := range mf.Files {
		strategy, err := template.ParseStrategy(f.Strategy)
		if err != nil {
			return nil, tmplerrors.Wrap(tmplerrors.ErrCodeInvalidManifest, err, "file %s", f.Path)
		}
		settings[f.Path] = fileSetting{strategy: strategy, priority: f.Priority}
	}
	return settings, nil
}

type fileSetting struct {
	strategy template.Strategy
	priority int
}
