package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/templar-cli/templar/pkg/cache"
	tmplerrors "github.com/templar-cli/templar/pkg/errors"
)

// fakeRegistry serves a minimal registry API for client tests.
func fakeRegistry(t *testing.T, manifests map[string]ManifestDoc, versions map[string][]string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var requests atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/manifests/{id}", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		doc, ok := manifests[r.PathValue("id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(doc)
	})
	mux.HandleFunc("GET /api/v1/templates/{name}/versions", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		list, ok := versions[r.PathValue("name")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"versions": list})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestClientLoadManifest(t *testing.T) {
	srv, _ := fakeRegistry(t, map[string]ManifestDoc{
		"web-app@1.2.0": {
			Name:    "web-app",
			Version: "1.2.0",
			Dependencies: []DependencyDoc{
				{Name: "base", Constraint: "^1.0.0"},
			},
			Files: []FragmentDoc{
				{Path: "Makefile", Content: "build:\n", Strategy: "replace"},
			},
		},
	}, nil)

	c, err := NewClient(srv.URL, ClientOptions{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	m, err := c.LoadManifest(context.Background(), "web-app@1.2.0")
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.ID != "web-app@1.2.0" || len(m.Dependencies) != 1 || len(m.Files) != 1 {
		t.Errorf("manifest = %+v", m)
	}
	if m.Files[0].TemplateID != "web-app@1.2.0" {
		t.Errorf("fragment TemplateID = %q", m.Files[0].TemplateID)
	}
}

func TestClientLoadManifestNotFound(t *testing.T) {
	srv, _ := fakeRegistry(t, nil, nil)
	c, _ := NewClient(srv.URL, ClientOptions{})

	_, err := c.LoadManifest(context.Background(), "ghost@1.0.0")
	if !tmplerrors.Is(err, tmplerrors.ErrCodeTemplateNotFound) {
		t.Errorf("error = %v, want TEMPLATE_NOT_FOUND", err)
	}
}

func TestClientBareNameResolvesHighest(t *testing.T) {
	srv, _ := fakeRegistry(t,
		map[string]ManifestDoc{
			"base@2.1.0": {Name: "base", Version: "2.1.0"},
		},
		map[string][]string{
			"base": {"1.0.0", "2.1.0", "2.0.0"},
		},
	)
	c, _ := NewClient(srv.URL, ClientOptions{})

	m, err := c.LoadManifest(context.Background(), "base")
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.ID != "base@2.1.0" {
		t.Errorf("bare name resolved to %s, want base@2.1.0", m.ID)
	}
}

func TestClientCandidateVersions(t *testing.T) {
	srv, _ := fakeRegistry(t, nil, map[string][]string{
		"lib": {"1.0.0", "1.1.0"},
	})
	c, _ := NewClient(srv.URL, ClientOptions{})

	versions, err := c.CandidateVersions(context.Background(), "lib")
	if err != nil {
		t.Fatalf("CandidateVersions: %v", err)
	}
	if len(versions) != 2 {
		t.Errorf("versions = %v", versions)
	}

	// Unknown names are an empty catalog, not an error.
	versions, err = c.CandidateVersions(context.Background(), "unknown")
	if err != nil || versions != nil {
		t.Errorf("unknown name: versions=%v err=%v", versions, err)
	}
}

func TestClientUsesCache(t *testing.T) {
	srv, requests := fakeRegistry(t, map[string]ManifestDoc{
		"base@1.0.0": {Name: "base", Version: "1.0.0"},
	}, nil)

	fileCache, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c, _ := NewClient(srv.URL, ClientOptions{Cache: fileCache})

	for i := 0; i < 3; i++ {
		if _, err := c.LoadManifest(context.Background(), "base@1.0.0"); err != nil {
			t.Fatalf("LoadManifest #%d: %v", i, err)
		}
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1 (rest from cache)", got)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"versions": []string{"1.0.0"}})
	}))
	t.Cleanup(srv.Close)

	c, _ := NewClient(srv.URL, ClientOptions{})
	versions, err := c.CandidateVersions(context.Background(), "flaky")
	if err != nil {
		t.Fatalf("CandidateVersions: %v", err)
	}
	if len(versions) != 1 || calls.Load() != 2 {
		t.Errorf("versions=%v calls=%d, want retry then success", versions, calls.Load())
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	if _, err := NewClient("not a url", ClientOptions{}); err == nil {
		t.Error("expected error for invalid base URL")
	}
}

func TestManifestDocRejectsBadData(t *testing.T) {
	cases := []struct {
		name string
		doc  ManifestDoc
	}{
		{"bad version", ManifestDoc{Name: "x", Version: "nope"}},
		{"bad constraint", ManifestDoc{Name: "x", Version: "1.0.0",
			Dependencies: []DependencyDoc{{Name: "y", Constraint: "wild"}}}},
		{"bad kind", ManifestDoc{Name: "x", Version: "1.0.0",
			Dependencies: []DependencyDoc{{Name: "y", Constraint: "*", Kind: "exotic"}}}},
		{"bad strategy", ManifestDoc{Name: "x", Version: "1.0.0",
			Files: []FragmentDoc{{Path: "f", Strategy: "zap"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.doc.ToManifest(); !tmplerrors.Is(err, tmplerrors.ErrCodeInvalidManifest) {
				t.Errorf("error = %v, want INVALID_MANIFEST", err)
			}
		})
	}
}
