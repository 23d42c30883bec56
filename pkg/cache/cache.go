// Package cache provides byte-level caching for template manifests,
// catalog listings, and pipeline results.
//
// Backends: FileCache for CLI usage, RedisCache for server deployments,
// NullCache to disable caching. Keys are generated through a Keyer so that
// key layout stays consistent between the CLI and the registry server; a
// ScopedKeyer adds a prefix for multi-tenant isolation.
package cache

import (
	"context"
	"time"
)

// Cache is the interface all cache backends implement. Values are opaque
// bytes; callers own serialization.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs per cached object class. Manifests are immutable once
// published so they keep the longest TTL; catalog listings change whenever
// a version is published.
const (
	TTLManifest = 24 * time.Hour
	TTLCatalog  = 15 * time.Minute
	TTLResult   = time.Hour
)

// Keyer generates cache keys for the object classes templar caches.
type Keyer interface {
	// ManifestKey keys a template manifest by its full "name@version" ID.
	ManifestKey(templateID string) string

	// CatalogKey keys the published-version listing for a template name.
	CatalogKey(name string) string

	// ResultKey keys a pipeline result by the requested template and the
	// options that shaped the run.
	ResultKey(templateID string, opts ResultKeyOpts) string
}

// ResultKeyOpts are the pipeline options that affect a cached result.
type ResultKeyOpts struct {
	DefaultStrategy string
	MaxDepth        int
	RuleHash        string
}

// DefaultKeyer generates namespaced, hashed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ManifestKey generates a key for manifest caching.
func (k *DefaultKeyer) ManifestKey(templateID string) string {
	return hashKey("manifest", templateID)
}

// CatalogKey generates a key for catalog listing caching.
func (k *DefaultKeyer) CatalogKey(name string) string {
	return hashKey("catalog", name)
}

// ResultKey generates a key for pipeline result caching.
func (k *DefaultKeyer) ResultKey(templateID string, opts ResultKeyOpts) string {
	return hashKey("result", templateID, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
