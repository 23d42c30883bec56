// Package semver provides semantic version and version constraint types for
// template dependency resolution.
//
// Versions follow the MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD] grammar and are
// totally ordered: a version with a prerelease tag sorts before the same
// major.minor.patch without one. Constraints are pure predicates over
// versions and carry no mutable state.
//
// Parsing and comparison are backed by [github.com/Masterminds/semver/v3];
// this package narrows its permissive grammar (no partial versions, no "v"
// prefix shortcuts beyond what the grammar allows) and layers the constraint
// forms used by template manifests on top.
package semver

import (
	"slices"

	mm "github.com/Masterminds/semver/v3"

	"github.com/templar-cli/templar/pkg/errors"
)

// Version is an immutable semantic version.
//
// The zero value is not usable - use Parse or MustParse to create one.
type Version struct {
	v *mm.Version
}

// Parse parses a strict semantic version string.
// All three of major, minor, and patch must be present; partial versions
// like "1.2" are rejected rather than zero-filled.
func Parse(raw string) (Version, error) {
	v, err := mm.StrictNewVersion(raw)
	if err != nil {
		return Version{}, errors.Wrap(errors.ErrCodeInvalidVersion, err, "parse version %q", raw)
	}
	return Version{v: v}, nil
}

// MustParse parses a version and panics on failure.
// Intended for tests and package-level constants.
func MustParse(raw string) Version {
	v, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// Major returns the major version component.
func (v Version) Major() uint64 { return v.v.Major() }

// Minor returns the minor version component.
func (v Version) Minor() uint64 { return v.v.Minor() }

// Patch returns the patch version component.
func (v Version) Patch() uint64 { return v.v.Patch() }

// Prerelease returns the prerelease tag, or "" if none.
func (v Version) Prerelease() string { return v.v.Prerelease() }

// Build returns the build metadata, or "" if none.
// Build metadata never participates in ordering.
func (v Version) Build() string { return v.v.Metadata() }

// IsZero reports whether v is the unusable zero value.
func (v Version) IsZero() bool { return v.v == nil }

// String returns the canonical string form of the version.
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

// Compare compares v to other, returning -1, 0, or 1.
//
// Comparison follows semver precedence: major, then minor, then patch,
// with a prerelease sorting before the corresponding release. Build
// metadata is ignored.
func (v Version) Compare(other Version) int {
	if v.v == nil && other.v == nil {
		return 0
	}
	if v.v == nil {
		return -1
	}
	if other.v == nil {
		return 1
	}
	return v.v.Compare(other.v)
}

// Equal reports whether v and other have equal precedence.
func (v Version) Equal(other Version) bool { return v.Compare(other) == 0 }

// LessThan reports whether v sorts before other.
func (v Version) LessThan(other Version) bool { return v.Compare(other) < 0 }

// IncMajor returns a new version with the major component incremented.
// Minor and patch reset to zero; prerelease and build are dropped.
func (v Version) IncMajor() Version {
	next := v.v.IncMajor()
	return Version{v: &next}
}

// IncMinor returns a new version with the minor component incremented.
// Patch resets to zero; prerelease and build are dropped.
func (v Version) IncMinor() Version {
	next := v.v.IncMinor()
	return Version{v: &next}
}

// IncPatch returns a new version with the patch component incremented.
// Prerelease and build are dropped.
func (v Version) IncPatch() Version {
	next := v.v.IncPatch()
	return Version{v: &next}
}

// Sort sorts versions in ascending precedence order, in place.
func Sort(versions []Version) {
	slices.SortFunc(versions, func(a, b Version) int { return a.Compare(b) })
}

// MaxSatisfying returns the highest candidate allowed by every constraint.
// Returns false if no candidate satisfies all constraints.
func MaxSatisfying(candidates []Version, constraints []Constraint) (Version, bool) {
	var best Version
	found := false
	for _, candidate := range candidates {
		if !allowedByAll(candidate, constraints) {
			continue
		}
		if !found || candidate.Compare(best) > 0 {
			best = candidate
			found = true
		}
	}
	return best, found
}

func allowedByAll(v Version, constraints []Constraint) bool {
	for _, c := range constraints {
		if !c.Allows(v) {
			return false
		}
	}
	return true
}
