package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// The registry server uses this to keep per-user private template caches
// separate from the shared public cache.
//
// Example usage:
//
//	// User-specific keys for private templates
//	userKeyer := NewScopedKeyer(NewDefaultKeyer(), "user:abc123:")
//
//	// Global keys for public templates
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ManifestKey generates a prefixed key for manifest caching.
func (k *ScopedKeyer) ManifestKey(templateID string) string {
	return k.prefix + k.inner.ManifestKey(templateID)
}

// CatalogKey generates a prefixed key for catalog listing caching.
func (k *ScopedKeyer) CatalogKey(name string) string {
	return k.prefix + k.inner.CatalogKey(name)
}

// ResultKey generates a prefixed key for pipeline result caching.
func (k *ScopedKeyer) ResultKey(templateID string, opts ResultKeyOpts) string {
	return k.prefix + k.inner.ResultKey(templateID, opts)
}
