package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/templar-cli/templar/pkg/cache"
	"github.com/templar-cli/templar/pkg/compose"
	"github.com/templar-cli/templar/pkg/inherit"
	"github.com/templar-cli/templar/pkg/observability"
	"github.com/templar-cli/templar/pkg/registry"
	"github.com/templar-cli/templar/pkg/resolver"
	"github.com/templar-cli/templar/pkg/semver"
	"github.com/templar-cli/templar/pkg/template"
)

// Runner executes the generation pipeline against a template source.
type Runner struct {
	store   template.Store
	catalog template.Catalog
	cache   cache.Cache
	keyer   cache.Keyer
}

// NewRunner creates a pipeline runner. A nil cache disables result
// caching; a nil keyer gets the default key layout.
func NewRunner(store template.Store, catalog template.Catalog, c cache.Cache, keyer cache.Keyer) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Runner{store: store, catalog: catalog, cache: c, keyer: keyer}
}

// Execute runs the complete pipeline: chain, resolve, compose.
//
// Dependency conflicts and per-path composition errors are reported in the
// result, not as an error, so callers can show every problem at once. The
// returned error covers fatal conditions only: invalid options, an
// unresolvable inheritance chain, or a dependency cycle.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	res := &Result{RunID: uuid.NewString()}
	logger.Debug("pipeline start", "run_id", res.RunID, "template", opts.TemplateID)

	key := r.keyer.ResultKey(opts.TemplateID, opts.resultKeyOpts())
	if !opts.Refresh {
		if cached, ok := r.lookupCached(ctx, key); ok {
			logger.Debug("pipeline served from cache", "run_id", res.RunID)
			cached.RunID = res.RunID
			return cached, nil
		}
	}

	// Stage 1: inheritance chain.
	observability.Resolve().OnChainStart(ctx, opts.TemplateID)
	chainStart := time.Now()
	chain, err := inherit.New(r.store, inherit.Options{
		MaxDepth:        opts.MaxDepth,
		DefaultStrategy: template.Strategy(opts.DefaultStrategy),
	}).ResolveChain(ctx, opts.TemplateID)
	res.Stats.ChainTime = time.Since(chainStart)
	if chain != nil {
		res.Stats.ChainLen = chain.Len()
	}
	observability.Resolve().OnChainComplete(ctx, opts.TemplateID, res.Stats.ChainLen, res.Stats.ChainTime, err)
	if err != nil {
		return nil, err
	}
	res.Chain = chain
	res.TemplateID = chain.Leaf().Template.ID
	logger.Debug("chain resolved", "run_id", res.RunID, "len", chain.Len(), "leaf", res.TemplateID)

	// Stage 2: dependency resolution.
	observability.Resolve().OnResolveStart(ctx, res.TemplateID)
	resolveStart := time.Now()
	resolution, err := resolver.New(r.store, r.catalog, resolver.Options{
		MaxNodes: opts.MaxNodes,
		Logger: func(format string, args ...any) {
			logger.Debugf("resolve: "+format, args...)
		},
	}).Resolve(ctx, chain.Requirements())
	res.Stats.ResolveTime = time.Since(resolveStart)
	nodeCount, conflictCount := 0, 0
	if resolution != nil {
		nodeCount = len(resolution.Versions)
		conflictCount = len(resolution.Conflicts)
	}
	observability.Resolve().OnResolveComplete(ctx, res.TemplateID, nodeCount, conflictCount, res.Stats.ResolveTime, err)
	if err != nil {
		return nil, err
	}
	res.Resolution = resolution
	res.Versions = resolution.Versions
	res.Order = resolution.Order
	res.InstallOrder = runtimeOrder(chain, resolution)
	res.Conflicts = resolution.Conflicts
	res.Warnings = append(res.Warnings, resolution.Warnings...)
	res.Stats.NodeCount = nodeCount
	res.Stats.ConflictCount = conflictCount
	logger.Debug("dependencies resolved", "run_id", res.RunID,
		"nodes", nodeCount, "conflicts", conflictCount)

	// Stage 3: composition.
	engine, err := compose.New(opts.composeConfig())
	if err != nil {
		return nil, err
	}
	observability.Resolve().OnComposeStart(ctx, res.TemplateID, chain.Len())
	composeStart := time.Now()
	composition := engine.Compose(chain)
	res.Stats.ComposeTime = time.Since(composeStart)
	res.Stats.FileCount = len(composition.ProcessedFiles)
	var composeErr error
	if len(composition.Errors) > 0 {
		composeErr = composition.Errors[0]
	}
	observability.Resolve().OnComposeComplete(ctx, res.TemplateID, res.Stats.FileCount, res.Stats.ComposeTime, composeErr)
	res.Composition = composition
	res.Template = composition.Template
	res.ComposeErrors = composition.Errors
	for _, w := range composition.Warnings {
		res.Warnings = append(res.Warnings, w.Path+": "+w.Message)
	}
	logger.Debug("composition complete", "run_id", res.RunID,
		"files", res.Stats.FileCount, "errors", len(composition.Errors))

	if res.OK() {
		r.storeCached(ctx, key, res)
	}
	return res, nil
}

// runtimeOrder filters the install order down to names reachable from the
// chain's runtime and peer declarations, dropping dev-only subtrees.
func runtimeOrder(chain *inherit.Chain, resolution *resolver.Result) []string {
	reachable := make(map[string]bool)
	var queue []string
	for _, req := range chain.Requirements() {
		if req.Kind.OrRuntime() == template.KindDev {
			continue
		}
		if !reachable[req.Name] {
			reachable[req.Name] = true
			queue = append(queue, req.Name)
		}
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, dep := range resolution.Graph.Requires(name) {
			if !reachable[dep] {
				reachable[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	var order []string
	for _, name := range resolution.Order {
		if reachable[name] {
			order = append(order, name)
		}
	}
	return order
}

// resultPayload is the cached form of a successful pipeline run. Stage
// results are not cached; a cached run carries the composed template and
// the resolution outcome only.
type resultPayload struct {
	TemplateID   string                `json:"template_id"`
	Template     *registry.ManifestDoc `json:"template"`
	Versions     map[string]string     `json:"versions"`
	Order        []string              `json:"order"`
	InstallOrder []string              `json:"install_order,omitempty"`
	Warnings     []string              `json:"warnings,omitempty"`
}

func (r *Runner) lookupCached(ctx context.Context, key string) (*Result, bool) {
	data, ok, err := r.cache.Get(ctx, key)
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, "result")
		return nil, false
	}

	var payload resultPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		// Stale or corrupt entry; treat as a miss.
		observability.Cache().OnCacheMiss(ctx, "result")
		return nil, false
	}
	manifest, err := payload.Template.ToManifest()
	if err != nil {
		observability.Cache().OnCacheMiss(ctx, "result")
		return nil, false
	}
	versions := make(map[string]semver.Version, len(payload.Versions))
	for name, raw := range payload.Versions {
		v, err := semver.Parse(raw)
		if err != nil {
			observability.Cache().OnCacheMiss(ctx, "result")
			return nil, false
		}
		versions[name] = v
	}

	observability.Cache().OnCacheHit(ctx, "result")
	return &Result{
		TemplateID:   payload.TemplateID,
		Template:     manifest,
		Versions:     versions,
		Order:        payload.Order,
		InstallOrder: payload.InstallOrder,
		Warnings:     payload.Warnings,
		CacheInfo:    CacheInfo{ResultHit: true},
	}, true
}

func (r *Runner) storeCached(ctx context.Context, key string, res *Result) {
	payload := resultPayload{
		TemplateID:   res.TemplateID,
		Template:     registry.FromManifest(res.Template),
		Versions:     make(map[string]string, len(res.Versions)),
		Order:        res.Order,
		InstallOrder: res.InstallOrder,
		Warnings:     res.Warnings,
	}
	for name, v := range res.Versions {
		payload.Versions[name] = v.String()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	// Best effort; a failed write only costs the next run a recompute.
	if err := r.cache.Set(ctx, key, data, cache.TTLResult); err == nil {
		observability.Cache().OnCacheSet(ctx, "result", len(data))
	}
}
