package resolver_test

import (
	"context"
	"fmt"

	"github.com/templar-cli/templar/pkg/errors"
	"github.com/templar-cli/templar/pkg/resolver"
	"github.com/templar-cli/templar/pkg/semver"
	"github.com/templar-cli/templar/pkg/template"
)

// exampleRegistry is a tiny in-memory store and catalog.
type exampleRegistry map[string]*template.Manifest

func (r exampleRegistry) LoadManifest(_ context.Context, id string) (*template.Manifest, error) {
	m, ok := r[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeTemplateNotFound, "template %s not found", id)
	}
	return m, nil
}

func (r exampleRegistry) CandidateVersions(_ context.Context, name string) ([]semver.Version, error) {
	var versions []semver.Version
	for _, m := range r {
		if m.Name == name {
			versions = append(versions, m.Version)
		}
	}
	return versions, nil
}

func Example() {
	reg := exampleRegistry{
		"web-app@1.2.0": {
			ID: "web-app@1.2.0", Name: "web-app", Version: semver.MustParse("1.2.0"),
			Dependencies: []template.Dependency{
				{Name: "base", Constraint: semver.MustParseConstraint("^2.0.0")},
			},
		},
		"base@2.0.0": {ID: "base@2.0.0", Name: "base", Version: semver.MustParse("2.0.0")},
		"base@2.3.1": {ID: "base@2.3.1", Name: "base", Version: semver.MustParse("2.3.1")},
	}

	r := resolver.New(reg, reg, resolver.Options{})
	res, err := r.Resolve(context.Background(), []template.Requirement{
		{RequestedBy: "my-project", Dependency: template.Dependency{
			Name:       "web-app",
			Constraint: semver.MustParseConstraint("^1.0.0"),
		}},
	})
	if err != nil {
		fmt.Println("resolve failed:", err)
		return
	}

	for _, pin := range res.Pins() {
		fmt.Println(pin)
	}
	// Output:
	// base@2.3.1
	// web-app@1.2.0
}
