// Package local implements a filesystem-backed template store and catalog.
//
// Templates live under a root directory, one directory per template name,
// one subdirectory per published version:
//
//	templates/
//	  web-app/
//	    1.0.0/
//	      template.toml      (or template.yaml)
//	      files/
//	        Makefile
//	        src/main.go.tmpl
//	    1.1.0/
//	      ...
//
// The manifest declares identity, lineage, dependencies, parameters, and
// optional per-file strategy settings; everything under files/ becomes a
// fragment, whether listed in the manifest or not.
package local

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tmplerrors "github.com/templar-cli/templar/pkg/errors"
	"github.com/templar-cli/templar/pkg/semver"
	"github.com/templar-cli/templar/pkg/template"
)

// Store reads templates from a local directory tree. It implements both
// template.Store and template.Catalog.
//
// A Store performs no caching; wrap it in a caching layer when lookups get
// hot.
type Store struct {
	root string
}

// New creates a store rooted at dir. The directory must exist.
func New(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, tmplerrors.Wrap(tmplerrors.ErrCodeInvalidPath, err, "template directory %s", dir)
	}
	if !info.IsDir() {
		return nil, tmplerrors.New(tmplerrors.ErrCodeInvalidPath, "%s is not a directory", dir)
	}
	return &Store{root: dir}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// LoadManifest loads a template by ID. A bare name resolves to the highest
// published version; "name@version" loads that exact version.
func (s *Store) LoadManifest(ctx context.Context, templateID string) (*template.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := tmplerrors.ValidateTemplateID(templateID); err != nil {
		return nil, err
	}

	name, versionStr, pinned := strings.Cut(templateID, "@")
	if !pinned {
		versions, err := s.CandidateVersions(ctx, name)
		if err != nil {
			return nil, err
		}
		if len(versions) == 0 {
			return nil, tmplerrors.New(tmplerrors.ErrCodeTemplateNotFound,
				"template %s has no published versions", name)
		}
		semver.Sort(versions)
		versionStr = versions[len(versions)-1].String()
	}

	dir := filepath.Join(s.root, name, versionStr)
	filename, data, err := readManifestFile(dir)
	if err != nil {
		return nil, err
	}

	mf, err := decodeManifest(filename, data)
	if err != nil {
		return nil, err
	}
	m, err := mf.toManifest()
	if err != nil {
		return nil, err
	}
	if m.Name != name {
		return nil, tmplerrors.New(tmplerrors.ErrCodeInvalidManifest,
			"manifest in %s declares name %q", dir, m.Name)
	}

	settings, err := mf.fileSettings()
	if err != nil {
		return nil, err
	}
	m.Files, err = loadFragments(dir, m.ID, settings)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CandidateVersions lists the published versions for a template name by
// scanning its version directories. Directories that do not parse as a
// version are skipped.
func (s *Store) CandidateVersions(ctx context.Context, name string) ([]semver.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := tmplerrors.ValidateTemplateName(name); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(s.root, name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var versions []semver.Version
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		v, err := semver.Parse(entry.Name())
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// ListTemplates returns the template names published in the store, sorted.
func (s *Store) ListTemplates(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// readManifestFile finds and reads the version directory's manifest.
func readManifestFile(dir string) (string, []byte, error) {
	for _, filename := range manifestFilenames {
		data, err := os.ReadFile(filepath.Join(dir, filename))
		if err == nil {
			return filename, data, nil
		}
		if !os.IsNotExist(err) {
			return "", nil, err
		}
	}
	return "", nil, tmplerrors.New(tmplerrors.ErrCodeTemplateNotFound,
		"no template manifest in %s", dir)
}

// loadFragments walks the version directory's files/ tree and builds one
// fragment per file, applying any per-path settings from the manifest.
func loadFragments(dir, templateID string, settings map[string]fileSetting) ([]template.Fragment, error) {
	filesDir := filepath.Join(dir, "files")
	if _, err := os.Stat(filesDir); os.IsNotExist(err) {
		return nil, nil
	}

	var fragments []template.Fragment
	err := filepath.WalkDir(filesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(filesDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		frag := template.Fragment{
			TemplateID: templateID,
			Path:       rel,
			Content:    string(content),
		}
		if setting, ok := settings[rel]; ok {
			frag.Strategy = setting.strategy
			frag.Priority = setting.priority
		}
		fragments = append(fragments, frag)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// WalkDir is lexical already, but sort explicitly so fragment order
	// never depends on the filesystem.
	sort.Slice(fragments, func(i, j int) bool { return fragments[i].Path < fragments[j].Path })
	return fragments, nil
}

var (
	_ template.Store   = (*Store)(nil)
	_ template.Catalog = (*Store)(nil)
)
