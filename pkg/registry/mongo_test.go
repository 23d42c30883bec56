//go:build integration

package registry

import (
	"context"
	"os"
	"testing"
	"time"

	tmplerrors "github.com/templar-cli/templar/pkg/errors"
	"github.com/templar-cli/templar/pkg/semver"
	"github.com/templar-cli/templar/pkg/template"
)

// Requires a running MongoDB. Set TEMPLAR_TEST_MONGO_URI, e.g.
// mongodb://localhost:27017, and run with -tags integration.
func mongoStore(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("TEMPLAR_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEMPLAR_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := NewMongoStore(ctx, MongoConfig{
		URI:        uri,
		Database:   "templar_test",
		Collection: "templates_" + t.Name(),
	})
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.coll.Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func TestMongoPublishAndLoad(t *testing.T) {
	s := mongoStore(t)
	ctx := context.Background()

	m := &template.Manifest{
		ID:      "api@1.0.0",
		Name:    "api",
		Version: semver.MustParse("1.0.0"),
		Dependencies: []template.Dependency{
			{Name: "base", Constraint: semver.MustParseConstraint("^2.0.0")},
		},
	}
	if err := s.Publish(ctx, m); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	got, err := s.LoadManifest(ctx, "api@1.0.0")
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if got.ID != "api@1.0.0" || len(got.Dependencies) != 1 {
		t.Errorf("manifest = %+v", got)
	}

	// Publishing the same version again replaces, not duplicates.
	if err := s.Publish(ctx, m); err != nil {
		t.Fatalf("re-Publish: %v", err)
	}
	versions, err := s.CandidateVersions(ctx, "api")
	if err != nil {
		t.Fatalf("CandidateVersions: %v", err)
	}
	if len(versions) != 1 {
		t.Errorf("versions = %v, want one entry after re-publish", versions)
	}
}

func TestMongoBareNamePicksHighest(t *testing.T) {
	s := mongoStore(t)
	ctx := context.Background()

	for _, v := range []string{"1.0.0", "1.10.0", "1.2.0"} {
		m := &template.Manifest{
			ID:      "lib@" + v,
			Name:    "lib",
			Version: semver.MustParse(v),
		}
		if err := s.Publish(ctx, m); err != nil {
			t.Fatalf("Publish %s: %v", v, err)
		}
	}

	got, err := s.LoadManifest(ctx, "lib")
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if got.ID != "lib@1.10.0" {
		t.Errorf("bare name resolved to %s, want lib@1.10.0", got.ID)
	}
}

func TestMongoNotFound(t *testing.T) {
	s := mongoStore(t)

	_, err := s.LoadManifest(context.Background(), "ghost@1.0.0")
	if !tmplerrors.Is(err, tmplerrors.ErrCodeTemplateNotFound) {
		t.Errorf("error = %v, want TEMPLATE_NOT_FOUND", err)
	}
}
