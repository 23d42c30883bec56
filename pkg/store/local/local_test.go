package local

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	tmplerrors "github.com/templar-cli/templar/pkg/errors"
	"github.com/templar-cli/templar/pkg/template"
)

// writeTemplate lays out one template version on disk.
func writeTemplate(t *testing.T, root, name, version, manifestName, manifest string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(root, name, version)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestName), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}
	for path, content := range files {
		full := filepath.Join(dir, "files", filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

const webAppToml = `
[template]
name = "web-app"
version = "1.2.0"
extends = "base"
strategy = "merge"

[[dependencies]]
name = "core"
version = "^2.0.0"

[[dependencies]]
name = "lint"
version = "~1.4.0"
kind = "dev"
optional = true

[[files]]
path = "Makefile"
strategy = "replace"
priority = 5

[[parameters]]
name = "project_name"
type = "string"
required = true
`

func TestLoadManifestTOML(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "web-app", "1.2.0", "template.toml", webAppToml, map[string]string{
		"Makefile":    "build:\n\tgo build\n",
		"src/main.go": "package main\n",
	})

	s, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	m, err := s.LoadManifest(context.Background(), "web-app@1.2.0")
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}

	if m.ID != "web-app@1.2.0" || m.Name != "web-app" {
		t.Errorf("identity = %s / %s", m.ID, m.Name)
	}
	if m.Extends != "base" {
		t.Errorf("Extends = %q", m.Extends)
	}
	if m.DefaultStrategy != template.StrategyMerge {
		t.Errorf("DefaultStrategy = %q", m.DefaultStrategy)
	}

	if len(m.Dependencies) != 2 {
		t.Fatalf("Dependencies = %d, want 2", len(m.Dependencies))
	}
	if d := m.Dependencies[0]; d.Name != "core" || d.Constraint.String() != "^2.0.0" {
		t.Errorf("dep[0] = %+v", d)
	}
	if d := m.Dependencies[1]; d.Kind != template.KindDev || !d.Optional {
		t.Errorf("dep[1] = %+v, want optional dev", d)
	}

	if len(m.Files) != 2 {
		t.Fatalf("Files = %d, want 2", len(m.Files))
	}
	// Fragments are sorted by path; Makefile gets its declared settings.
	if f := m.Files[0]; f.Path != "Makefile" || f.Strategy != template.StrategyReplace || f.Priority != 5 {
		t.Errorf("Makefile fragment = %+v", f)
	}
	if f := m.Files[1]; f.Path != "src/main.go" || f.Strategy != template.StrategyUnset {
		t.Errorf("src/main.go fragment = %+v", f)
	}
	if m.Files[1].Content != "package main\n" {
		t.Errorf("fragment content = %q", m.Files[1].Content)
	}

	if len(m.Parameters) != 1 || m.Parameters[0].Name != "project_name" {
		t.Errorf("Parameters = %+v", m.Parameters)
	}
}

func TestLoadManifestYAML(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "svc", "0.3.1", "template.yaml", `
template:
  name: svc
  version: 0.3.1
dependencies:
  - name: base
    version: "^1.0.0"
`, nil)

	s, _ := New(root)
	m, err := s.LoadManifest(context.Background(), "svc@0.3.1")
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.ID != "svc@0.3.1" || len(m.Dependencies) != 1 {
		t.Errorf("manifest = %+v", m)
	}
}

func TestLoadManifestBareNamePicksHighest(t *testing.T) {
	root := t.TempDir()
	for _, v := range []string{"1.0.0", "1.2.0", "1.10.0"} {
		writeTemplate(t, root, "base", v, "template.toml",
			"[template]\nname = \"base\"\nversion = \""+v+"\"\n", nil)
	}

	s, _ := New(root)
	m, err := s.LoadManifest(context.Background(), "base")
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	// Semantic order, not lexical: 1.10.0 beats 1.2.0.
	if m.ID != "base@1.10.0" {
		t.Errorf("bare name resolved to %s, want base@1.10.0", m.ID)
	}
}

func TestLoadManifestNotFound(t *testing.T) {
	s, _ := New(t.TempDir())

	_, err := s.LoadManifest(context.Background(), "ghost@1.0.0")
	if !tmplerrors.Is(err, tmplerrors.ErrCodeTemplateNotFound) {
		t.Errorf("error = %v, want TEMPLATE_NOT_FOUND", err)
	}

	_, err = s.LoadManifest(context.Background(), "ghost")
	if !tmplerrors.Is(err, tmplerrors.ErrCodeTemplateNotFound) {
		t.Errorf("bare-name error = %v, want TEMPLATE_NOT_FOUND", err)
	}
}

func TestLoadManifestRejectsBadData(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "broken", "1.0.0", "template.toml",
		"[template]\nname = \"broken\"\nversion = \"not-a-version\"\n", nil)
	writeTemplate(t, root, "mismatch", "1.0.0", "template.toml",
		"[template]\nname = \"other\"\nversion = \"1.0.0\"\n", nil)

	s, _ := New(root)

	if _, err := s.LoadManifest(context.Background(), "broken@1.0.0"); !tmplerrors.Is(err, tmplerrors.ErrCodeInvalidManifest) {
		t.Errorf("bad version error = %v, want INVALID_MANIFEST", err)
	}
	if _, err := s.LoadManifest(context.Background(), "mismatch@1.0.0"); !tmplerrors.Is(err, tmplerrors.ErrCodeInvalidManifest) {
		t.Errorf("name mismatch error = %v, want INVALID_MANIFEST", err)
	}
}

func TestCandidateVersions(t *testing.T) {
	root := t.TempDir()
	for _, v := range []string{"1.0.0", "2.0.0-rc.1", "2.0.0"} {
		writeTemplate(t, root, "lib", v, "template.toml",
			"[template]\nname = \"lib\"\nversion = \""+v+"\"\n", nil)
	}
	// Junk directory is skipped, not an error.
	if err := os.MkdirAll(filepath.Join(root, "lib", "latest"), 0755); err != nil {
		t.Fatal(err)
	}

	s, _ := New(root)
	versions, err := s.CandidateVersions(context.Background(), "lib")
	if err != nil {
		t.Fatalf("CandidateVersions: %v", err)
	}
	if len(versions) != 3 {
		t.Errorf("versions = %v, want 3 entries", versions)
	}

	// Unknown name is an empty catalog, not an error.
	versions, err = s.CandidateVersions(context.Background(), "nope")
	if err != nil || versions != nil {
		t.Errorf("unknown name: versions=%v err=%v", versions, err)
	}
}

func TestListTemplates(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"zeta", "alpha"} {
		writeTemplate(t, root, name, "1.0.0", "template.toml",
			"[template]\nname = \""+name+"\"\nversion = \"1.0.0\"\n", nil)
	}

	s, _ := New(root)
	names, err := s.ListTemplates(context.Background())
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if !slices.Equal(names, []string{"alpha", "zeta"}) {
		t.Errorf("ListTemplates = %v", names)
	}
}
