package emit

import (
	"os"
	"path/filepath"
	"testing"

	tmplerrors "github.com/templar-cli/templar/pkg/errors"
	"github.com/templar-cli/templar/pkg/semver"
	"github.com/templar-cli/templar/pkg/template"
)

func composed(files ...template.Fragment) *template.Manifest {
	return &template.Manifest{
		ID:      "app@1.0.0",
		Name:    "app",
		Version: semver.MustParse("1.0.0"),
		Files:   files,
	}
}

func TestEmitWritesFiles(t *testing.T) {
	dir := t.TempDir()
	emitter, err := New(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}

	report, err := emitter.Emit(composed(
		template.Fragment{Path: "README.md", Content: "# App\n"},
		template.Fragment{Path: "src/main.go", Content: "package main\n"},
	))
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(report.Written) != 2 || len(report.Skipped) != 0 {
		t.Fatalf("report = %+v", report)
	}

	data, err := os.ReadFile(filepath.Join(dir, "src", "main.go"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "package main\n" {
		t.Errorf("src/main.go = %q", data)
	}
}

func TestEmitDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	emitter, err := New(dir, Options{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}

	report, err := emitter.Emit(composed(
		template.Fragment{Path: "README.md", Content: "# App\n"},
	))
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(report.Written) != 1 || !report.DryRun {
		t.Errorf("report = %+v", report)
	}
	if _, err := os.Stat(filepath.Join(dir, "README.md")); !os.IsNotExist(err) {
		t.Error("dry run wrote a file")
	}
}

func TestEmitSkipsExistingWithoutForce(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "README.md")
	if err := os.WriteFile(existing, []byte("mine\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	emitter, err := New(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	report, err := emitter.Emit(composed(
		template.Fragment{Path: "README.md", Content: "# App\n"},
		template.Fragment{Path: "LICENSE", Content: "MIT\n"},
	))
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != "README.md" {
		t.Errorf("Skipped = %v", report.Skipped)
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "mine\n" {
		t.Errorf("existing file overwritten: %q", data)
	}

	// Force overwrites.
	forced, err := New(dir, Options{Force: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := forced.Emit(composed(template.Fragment{Path: "README.md", Content: "# App\n"})); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(existing)
	if string(data) != "# App\n" {
		t.Errorf("force did not overwrite: %q", data)
	}
}

func TestEmitRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	emitter, err := New(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}

	tests := []string{
		"../escape.txt",
		"/etc/passwd",
		"nested/../../escape.txt",
	}
	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			_, err := emitter.Emit(composed(
				template.Fragment{Path: "ok.txt", Content: "fine"},
				template.Fragment{Path: path, Content: "bad"},
			))
			if !tmplerrors.Is(err, tmplerrors.ErrCodeInvalidPath) {
				t.Fatalf("error = %v, want INVALID_PATH", err)
			}
			// Validation happens before any write.
			if _, statErr := os.Stat(filepath.Join(dir, "ok.txt")); !os.IsNotExist(statErr) {
				t.Error("partial emission before validation failure")
			}
		})
	}
}

func TestReportSummary(t *testing.T) {
	r := &Report{Written: []string{"a", "b"}, Skipped: []string{"c"}}
	if got := r.Summary(); got != "wrote 2 file(s), skipped 1 existing" {
		t.Errorf("Summary = %q", got)
	}
	dry := &Report{Written: []string{"a"}, DryRun: true}
	if got := dry.Summary(); got != "would write 1 file(s)" {
		t.Errorf("Summary = %q", got)
	}
}
