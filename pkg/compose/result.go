package compose

import "github.com/templar-cli/templar/pkg/template"

// Result is the outcome of composing one inheritance chain.
type Result struct {
	// Template is the merged template definition: the leaf's identity with
	// the chain's combined files, parameters, and dependencies.
	Template *template.Manifest
	// AppliedStrategies records which strategy decided each composed path.
	AppliedStrategies map[string]template.Strategy
	// ProcessedFiles lists the composed paths in first-contribution order.
	ProcessedFiles []string
	// Errors holds per-path failures (strategy conflicts). Paths named
	// here are absent from the composed template.
	Errors []error
	// Warnings are non-fatal diagnostics such as shadowed fragments.
	Warnings []Warning
}

// OK reports whether every path composed without error.
func (r *Result) OK() bool { return len(r.Errors) == 0 }

// File returns the composed fragment for path, if present.
func (r *Result) File(path string) (template.Fragment, bool) {
	if r.Template == nil {
		return template.Fragment{}, false
	}
	for _, f := range r.Template.Files {
		if f.Path == path {
			return f, true
		}
	}
	return template.Fragment{}, false
}
