// Package registry provides remote template stores: an HTTP client for a
// templar registry server and a MongoDB-backed store for running one.
//
// Both implement template.Store and template.Catalog, so the resolution
// pipeline does not care whether manifests come from the local filesystem,
// a remote registry, or a database.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/templar-cli/templar/pkg/cache"
	tmplerrors "github.com/templar-cli/templar/pkg/errors"
	"github.com/templar-cli/templar/pkg/observability"
	"github.com/templar-cli/templar/pkg/semver"
	"github.com/templar-cli/templar/pkg/template"
)

const httpTimeout = 10 * time.Second

// Client fetches template manifests and version listings from a templar
// registry over HTTP. Responses are cached through the configured cache
// and retried on transient failures.
type Client struct {
	baseURL string
	http    *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	headers map[string]string
}

// ClientOptions configures a registry client.
type ClientOptions struct {
	// Cache stores fetched manifests and listings (default: NullCache).
	Cache cache.Cache
	// Keyer generates cache keys (default: DefaultKeyer).
	Keyer cache.Keyer
	// Token is an optional bearer token for private registries.
	Token string
}

// NewClient creates a client for the registry at baseURL.
func NewClient(baseURL string, opts ClientOptions) (*Client, error) {
	if err := tmplerrors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	headers := map[string]string{"Accept": "application/json"}
	if opts.Token != "" {
		headers["Authorization"] = "Bearer " + opts.Token
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeout},
		cache:   opts.Cache,
		keyer:   opts.Keyer,
		headers: headers,
	}, nil
}

// LoadManifest fetches a manifest by "name@version" ID. Exact IDs are
// cached with the manifest TTL; bare names are resolved against the
// catalog first.
func (c *Client) LoadManifest(ctx context.Context, templateID string) (*template.Manifest, error) {
	if err := tmplerrors.ValidateTemplateID(templateID); err != nil {
		return nil, err
	}
	if !strings.Contains(templateID, "@") {
		versions, err := c.CandidateVersions(ctx, templateID)
		if err != nil {
			return nil, err
		}
		if len(versions) == 0 {
			return nil, tmplerrors.New(tmplerrors.ErrCodeTemplateNotFound,
				"template %s has no published versions", templateID)
		}
		semver.Sort(versions)
		templateID = fmt.Sprintf("%s@%s", templateID, versions[len(versions)-1])
	}

	var doc ManifestDoc
	key := c.keyer.ManifestKey(templateID)
	endpoint := fmt.Sprintf("%s/api/v1/manifests/%s", c.baseURL, url.PathEscape(templateID))
	if err := c.cached(ctx, key, cache.TTLManifest, &doc, endpoint); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, tmplerrors.New(tmplerrors.ErrCodeTemplateNotFound, "template %s not found", templateID)
		}
		return nil, err
	}
	return doc.ToManifest()
}

// CandidateVersions fetches the published versions for a template name.
// A 404 means the name is unknown, which is an empty catalog rather than
// an error.
func (c *Client) CandidateVersions(ctx context.Context, name string) ([]semver.Version, error) {
	if err := tmplerrors.ValidateTemplateName(name); err != nil {
		return nil, err
	}

	var listing struct {
		Versions []string `json:"versions"`
	}
	key := c.keyer.CatalogKey(name)
	endpoint := fmt.Sprintf("%s/api/v1/templates/%s/versions", c.baseURL, url.PathEscape(name))
	if err := c.cached(ctx, key, cache.TTLCatalog, &listing, endpoint); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	versions := make([]semver.Version, 0, len(listing.Versions))
	for _, raw := range listing.Versions {
		v, err := semver.Parse(raw)
		if err != nil {
			return nil, tmplerrors.Wrap(tmplerrors.ErrCodeInvalidVersion, err,
				"registry returned invalid version %q for %s", raw, name)
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// cached retrieves a value from cache or fetches the endpoint and caches
// the result.
func (c *Client) cached(ctx context.Context, key string, ttl time.Duration, v any, endpoint string) error {
	if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
		if err := json.Unmarshal(data, v); err == nil {
			observability.Cache().OnCacheHit(ctx, keyType(key))
			return nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, keyType(key))

	err := cache.RetryWithBackoff(ctx, func() error {
		return c.get(ctx, endpoint, v)
	})
	if err != nil {
		return err
	}

	if data, err := json.Marshal(v); err == nil {
		_ = c.cache.Set(ctx, key, data, ttl)
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return nil
}

// get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) get(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	for k, val := range c.headers {
		req.Header.Set(k, val)
	}

	start := time.Now()
	observability.HTTP().OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path,
		resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return err
	}
	return json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(v)
}

// maxResponseBytes caps registry response bodies (manifests carry file
// content, so this is generous).
const maxResponseBytes = 32 << 20

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return cache.ErrNotFound
	case code == http.StatusTooManyRequests:
		return cache.Retryable(fmt.Errorf("%w: status %d", cache.ErrNetwork, code))
	case code >= 500:
		return cache.Retryable(fmt.Errorf("%w: status %d", cache.ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", cache.ErrNetwork, code)
	}
}

// keyType extracts the namespace prefix from a cache key for hook labels.
func keyType(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

var (
	_ template.Store   = (*Client)(nil)
	_ template.Catalog = (*Client)(nil)
)
