package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	tmplerrors "github.com/templar-cli/templar/pkg/errors"
	"github.com/templar-cli/templar/pkg/semver"
	"github.com/templar-cli/templar/pkg/template"
)

// MongoStore persists template manifests in MongoDB. It backs the registry
// server and implements template.Store and template.Catalog for direct
// use.
//
// Documents live in one collection keyed by (name, version); publishing
// the same version twice replaces the document.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// MongoConfig configures the MongoDB connection.
type MongoConfig struct {
	// URI is the MongoDB connection string.
	URI string
	// Database name (default: "templar").
	Database string
	// Collection name (default: "templates").
	Collection string
}

// NewMongoStore connects to MongoDB, verifies the connection, and ensures
// the (name, version) unique index exists.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "templar"
	}
	if cfg.Collection == "" {
		cfg.Collection = "templates"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, tmplerrors.Wrap(tmplerrors.ErrCodeNetwork, err, "connect to MongoDB")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, tmplerrors.Wrap(tmplerrors.ErrCodeNetwork, err, "ping MongoDB")
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}, {Key: "version", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, tmplerrors.Wrap(tmplerrors.ErrCodeInternal, err, "create template index")
	}

	return &MongoStore{client: client, coll: coll}, nil
}

// LoadManifest loads a manifest by "name@version" ID. A bare name
// resolves to the highest published version.
func (s *MongoStore) LoadManifest(ctx context.Context, templateID string) (*template.Manifest, error) {
	if err := tmplerrors.ValidateTemplateID(templateID); err != nil {
		return nil, err
	}

	name, version, pinned := strings.Cut(templateID, "@")
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
		version = versions[len(versions)-1].String()
	}

	var doc ManifestDoc
	err := s.coll.FindOne(ctx, bson.M{"name": name, "version": version}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, tmplerrors.New(tmplerrors.ErrCodeTemplateNotFound,
			"template %s@%s not found", name, version)
	}
	if err != nil {
		return nil, tmplerrors.Wrap(tmplerrors.ErrCodeNetwork, err, "load template %s@%s", name, version)
	}
	return doc.ToManifest()
}

// CandidateVersions lists the published versions for a template name.
func (s *MongoStore) CandidateVersions(ctx context.Context, name string) ([]semver.Version, error) {
	if err := tmplerrors.ValidateTemplateName(name); err != nil {
		return nil, err
	}

	raw, err := s.coll.Distinct(ctx, "version", bson.M{"name": name})
	if err != nil {
		return nil, tmplerrors.Wrap(tmplerrors.ErrCodeNetwork, err, "list versions for %s", name)
	}

	var versions []semver.Version
	for _, item := range raw {
		str, ok := item.(string)
		if !ok {
			return nil, tmplerrors.New(tmplerrors.ErrCodeInternal,
				"stored version for %s is %T, want string", name, item)
		}
		v, err := semver.Parse(str)
		if err != nil {
			return nil, tmplerrors.Wrap(tmplerrors.ErrCodeInvalidVersion, err,
				"stored version %q for %s", str, name)
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// Publish stores a manifest, replacing any existing document for the same
// name and version.
func (s *MongoStore) Publish(ctx context.Context, m *template.Manifest) error {
	doc := FromManifest(m)
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"name": doc.Name, "version": doc.Version},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return tmplerrors.Wrap(tmplerrors.ErrCodeNetwork, err, "publish %s@%s", doc.Name, doc.Version)
	}
	return nil
}

// ListTemplates returns the distinct template names in the store.
func (s *MongoStore) ListTemplates(ctx context.Context) ([]string, error) {
	raw, err := s.coll.Distinct(ctx, "name", bson.M{})
	if err != nil {
		return nil, tmplerrors.Wrap(tmplerrors.ErrCodeNetwork, err, "list templates")
	}
	names := make([]string, 0, len(raw))
	for _, item := range raw {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("stored name is %T, want string", item)
		}
		names = append(names, str)
	}
	return names, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var (
	_ template.Store   = (*MongoStore)(nil)
	_ template.Catalog = (*MongoStore)(nil)
)
