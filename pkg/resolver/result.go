package resolver

import (
	"fmt"
	"strings"
	"time"

	"github.com/templar-cli/templar/pkg/dag"
	"github.com/templar-cli/templar/pkg/semver"
)

// Conflict describes one dependency name that could not be resolved.
// Constraints holds every declared constraint against the name and
// RequestedBy every template that declared one, so users can see the full
// disagreement rather than the first pair found.
type Conflict struct {
	Name        string
	Reason      string
	Constraints []semver.Constraint
	RequestedBy []string
}

// String renders the conflict in a single diagnostic line.
func (c Conflict) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", c.Name, c.Reason)
	if len(c.Constraints) > 0 {
		parts := make([]string, len(c.Constraints))
		for i, con := range c.Constraints {
			if con == nil {
				parts[i] = "*"
				continue
			}
			parts[i] = con.String()
		}
		fmt.Fprintf(&b, " (constraints: %s)", strings.Join(parts, ", "))
	}
	if len(c.RequestedBy) > 0 {
		fmt.Fprintf(&b, " requested by %s", strings.Join(c.RequestedBy, ", "))
	}
	return b.String()
}

// Result is the outcome of one Resolve call.
type Result struct {
	// Versions maps each resolvable dependency name to its selected version.
	// Names listed in Conflicts are absent.
	Versions map[string]semver.Version
	// Conflicts holds every unresolvable name. Empty on full success.
	Conflicts []Conflict
	// Warnings are non-fatal diagnostics, such as skipped optional
	// dependencies.
	Warnings []string
	// Order lists dependency names so that every name appears after the
	// names it depends on. Valid only when Conflicts is empty.
	Order []string
	// Graph is the expanded dependency graph, one node per name.
	Graph *dag.Graph
	// Duration is the wall-clock time resolution took.
	Duration time.Duration
}

// OK reports whether every dependency resolved to a version.
func (r *Result) OK() bool { return len(r.Conflicts) == 0 }

// Pins returns the resolved "name@version" pairs in installation order.
// Valid only when OK.
func (r *Result) Pins() []string {
	pins := make([]string, 0, len(r.Order))
	for _, name := range r.Order {
		v, ok := r.Versions[name]
		if !ok {
			continue
		}
		pins = append(pins, name+"@"+v.String())
	}
	return pins
}
