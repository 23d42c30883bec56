package semver

import (
	"strings"

	"github.com/templar-cli/templar/pkg/errors"
)

// Ensure every constraint form implements Constraint.
var (
	_ Constraint = Exact{}
	_ Constraint = Compatible{}
	_ Constraint = Tilde{}
	_ Constraint = Range{}
)

// Constraint is a pure predicate over versions.
//
// The concrete types are [Exact], [Compatible], [Tilde], and [Range].
// Constraints are immutable values; Allows never mutates the receiver.
type Constraint interface {
	// Allows reports whether the version satisfies the constraint.
	Allows(v Version) bool
	// String returns the canonical constraint syntax.
	String() string
}

// Exact matches a single version.
type Exact struct {
	Version Version
}

// Allows reports whether v has equal precedence to the pinned version.
func (c Exact) Allows(v Version) bool { return v.Equal(c.Version) }

func (c Exact) String() string { return "=" + c.Version.String() }

// Compatible is the caret constraint (^1.2.3): same major, at or above the
// given version. When major is 0 the minor is pinned as well, following the
// usual caret semantics for pre-1.0 versions.
type Compatible struct {
	Version Version
}

// Allows reports whether v is caret-compatible with the base version.
func (c Compatible) Allows(v Version) bool {
	if v.Major() != c.Version.Major() {
		return false
	}
	if c.Version.Major() == 0 && v.Minor() != c.Version.Minor() {
		return false
	}
	return v.Compare(c.Version) >= 0
}

func (c Compatible) String() string { return "^" + c.Version.String() }

// Tilde is the tilde constraint (~1.2.3): same major.minor, patch at or
// above the given patch.
type Tilde struct {
	Version Version
}

// Allows reports whether v is tilde-compatible with the base version.
func (c Tilde) Allows(v Version) bool {
	return v.Major() == c.Version.Major() &&
		v.Minor() == c.Version.Minor() &&
		v.Patch() >= c.Version.Patch()
}

func (c Tilde) String() string { return "~" + c.Version.String() }

// Range matches versions between optional lower and upper bounds.
// A nil bound is unbounded on that side. The zero value (both bounds nil)
// matches every version and is the meaning of "*".
type Range struct {
	Min          *Version
	Max          *Version
	InclusiveMin bool
	InclusiveMax bool
}

// Allows reports whether v lies within the range bounds.
func (c Range) Allows(v Version) bool {
	if c.Min != nil {
		cmp := v.Compare(*c.Min)
		if cmp < 0 || (cmp == 0 && !c.InclusiveMin) {
			return false
		}
	}
	if c.Max != nil {
		cmp := v.Compare(*c.Max)
		if cmp > 0 || (cmp == 0 && !c.InclusiveMax) {
			return false
		}
	}
	return true
}

func (c Range) String() string {
	if c.Min == nil && c.Max == nil {
		return "*"
	}
	var parts []string
	if c.Min != nil {
		op := ">"
		if c.InclusiveMin {
			op = ">="
		}
		parts = append(parts, op+c.Min.String())
	}
	if c.Max != nil {
		op := "<"
		if c.InclusiveMax {
			op = "<="
		}
		parts = append(parts, op+c.Max.String())
	}
	return strings.Join(parts, " ")
}

// ParseConstraint parses a constraint expression.
//
// Supported forms:
//
//	1.2.3 or =1.2.3     exact match
//	^1.2.3              caret (compatible) match
//	~1.2.3              tilde match
//	>=1.0.0 <2.0.0      range (one or two space-separated bounds)
//	*                   any version
func ParseConstraint(raw string) (Constraint, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, errors.New(errors.ErrCodeInvalidConstraint, "constraint cannot be empty")
	}
	if s == "*" {
		return Range{}, nil
	}

	switch {
	case strings.HasPrefix(s, "^"):
		v, err := Parse(s[1:])
		if err != nil {
			return nil, constraintErr(raw, err)
		}
		return Compatible{Version: v}, nil
	case strings.HasPrefix(s, "~"):
		v, err := Parse(s[1:])
		if err != nil {
			return nil, constraintErr(raw, err)
		}
		return Tilde{Version: v}, nil
	case strings.HasPrefix(s, "="):
		v, err := Parse(strings.TrimSpace(s[1:]))
		if err != nil {
			return nil, constraintErr(raw, err)
		}
		return Exact{Version: v}, nil
	case strings.ContainsAny(s, "<>"):
		return parseRange(raw, s)
	default:
		v, err := Parse(s)
		if err != nil {
			return nil, constraintErr(raw, err)
		}
		return Exact{Version: v}, nil
	}
}

// MustParseConstraint parses a constraint and panics on failure.
// Intended for tests and package-level constants.
func MustParseConstraint(raw string) Constraint {
	c, err := ParseConstraint(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func parseRange(raw, s string) (Constraint, error) {
	r := Range{}
	for _, part := range strings.Fields(s) {
		var (
			op  string
			rem string
		)
		switch {
		case strings.HasPrefix(part, ">="):
			op, rem = ">=", part[2:]
		case strings.HasPrefix(part, "<="):
			op, rem = "<=", part[2:]
		case strings.HasPrefix(part, ">"):
			op, rem = ">", part[1:]
		case strings.HasPrefix(part, "<"):
			op, rem = "<", part[1:]
		default:
			return nil, errors.New(errors.ErrCodeInvalidConstraint,
				"range bound %q must start with >, >=, <, or <=", part)
		}

		v, err := Parse(rem)
		if err != nil {
			return nil, constraintErr(raw, err)
		}

		switch op {
		case ">", ">=":
			if r.Min != nil {
				return nil, errors.New(errors.ErrCodeInvalidConstraint,
					"constraint %q has multiple lower bounds", raw)
			}
			r.Min = &v
			r.InclusiveMin = op == ">="
		case "<", "<=":
			if r.Max != nil {
				return nil, errors.New(errors.ErrCodeInvalidConstraint,
					"constraint %q has multiple upper bounds", raw)
			}
			r.Max = &v
			r.InclusiveMax = op == "<="
		}
	}

	if r.Min != nil && r.Max != nil && r.Max.Compare(*r.Min) < 0 {
		return nil, errors.New(errors.ErrCodeInvalidConstraint,
			"constraint %q has an empty range (max below min)", raw)
	}
	return r, nil
}

func constraintErr(raw string, cause error) error {
	return errors.Wrap(errors.ErrCodeInvalidConstraint, cause, "parse constraint %q", raw)
}
