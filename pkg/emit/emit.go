// Package emit writes a composed template's files to an output directory.
//
// Emission is the last pipeline stage and the only one that touches the
// destination filesystem. Every fragment path is validated against
// traversal before anything is written, and a dry run reports the exact
// file set without writing.
package emit

import (
	"fmt"
	"os"
	"path/filepath"

	tmplerrors "github.com/templar-cli/templar/pkg/errors"
	"github.com/templar-cli/templar/pkg/template"
)

// Options configures emission behavior.
type Options struct {
	// DryRun computes the full report without writing anything.
	DryRun bool

	// Force overwrites files that already exist. Without it, existing
	// files are skipped and reported.
	Force bool
}

// Report describes what an emission did (or, for a dry run, would do).
type Report struct {
	// Written lists the paths created or overwritten, relative to the
	// output directory, in composition order.
	Written []string

	// Skipped lists existing paths left untouched.
	Skipped []string

	// DryRun mirrors the option so callers can label the report.
	DryRun bool
}

// FileCount returns the number of files the emission touched or would touch.
func (r *Report) FileCount() int { return len(r.Written) }

// Emitter writes composed templates beneath a root directory.
// The zero value is not usable - use New.
type Emitter struct {
	root string
	opts Options
}

// New creates an Emitter rooted at dir. The directory is created if it
// does not exist (unless DryRun is set).
func New(dir string, opts Options) (*Emitter, error) {
	if dir == "" {
		return nil, tmplerrors.New(tmplerrors.ErrCodeInvalidInput, "output directory is required")
	}
	if !opts.DryRun {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, tmplerrors.Wrap(tmplerrors.ErrCodeInternal, err, "create output directory %s", dir)
		}
	}
	return &Emitter{root: dir, opts: opts}, nil
}

// Emit writes every file of the composed template beneath the output
// directory. Paths are validated first; a single bad path fails the whole
// emission before any file is written.
func (e *Emitter) Emit(m *template.Manifest) (*Report, error) {
	if m == nil {
		return nil, tmplerrors.New(tmplerrors.ErrCodeInvalidInput, "nothing to emit")
	}
	for _, f := range m.Files {
		if err := tmplerrors.ValidatePath(f.Path); err != nil {
			return nil, err
		}
	}

	report := &Report{DryRun: e.opts.DryRun}
	for _, f := range m.Files {
		dest := filepath.Join(e.root, filepath.FromSlash(f.Path))

		if !e.opts.Force {
			if _, err := os.Stat(dest); err == nil {
				report.Skipped = append(report.Skipped, f.Path)
				continue
			}
		}
		if e.opts.DryRun {
			report.Written = append(report.Written, f.Path)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, tmplerrors.Wrap(tmplerrors.ErrCodeInternal, err, "create directory for %s", f.Path)
		}
		if err := os.WriteFile(dest, []byte(f.Content), 0o644); err != nil {
			return nil, tmplerrors.Wrap(tmplerrors.ErrCodeInternal, err, "write %s", f.Path)
		}
		report.Written = append(report.Written, f.Path)
	}
	return report, nil
}

// Summary returns a one-line description of the report for CLI output.
func (r *Report) Summary() string {
	verb := "wrote"
	if r.DryRun {
		verb = "would write"
	}
	if len(r.Skipped) > 0 {
		return fmt.Sprintf("%s %d file(s), skipped %d existing", verb, len(r.Written), len(r.Skipped))
	}
	return fmt.Sprintf("%s %d file(s)", verb, len(r.Written))
}
