// Package pkg provides the core libraries for Templar project scaffolding.
//
// # Overview
//
// Templar generates project trees from templates that can inherit from
// other templates, depend on them by version, and be composed into a
// single output. The pkg directory is organized into four main areas:
//
//  1. Core domain logic (version constraints, graphs, resolution, composition)
//  2. Template sources (local directories, HTTP registries, MongoDB)
//  3. Infrastructure (caching, observability, serialization)
//  4. Orchestration (the pipeline shared by CLI and server)
//
// # Architecture
//
// The typical data flow through Templar:
//
//	Template manifest (template.toml / registry document)
//	         ↓
//	    [inherit] package (walk the extends chain)
//	         ↓
//	    [resolver] package (select one version per dependency)
//	         ↓
//	    [compose] package (merge the chain into one template)
//	         ↓
//	    [emit] package (write the output tree)
//
// # Quick Start
//
// Resolve and compose a template from a local directory:
//
//	import (
//	    "context"
//	    "github.com/templar-cli/templar/pkg/pipeline"
//	    "github.com/templar-cli/templar/pkg/store/local"
//	)
//
//	store, _ := local.New("./templates")
//	runner := pipeline.NewRunner(store, store, nil, nil)
//	res, _ := runner.Execute(context.Background(), pipeline.Options{
//	    TemplateID: "web-app",
//	})
//	for _, f := range res.Template.Files {
//	    // write f.Path / f.Content
//	}
//
// # Main Packages
//
// ## Core Domain Logic
//
// [semver] - Strict semantic version parsing and the constraint forms
// templates declare: exact, caret, tilde, and bounded ranges.
//
// [template] - Shared value types (Manifest, Dependency, Fragment,
// Parameter) and the Store/Catalog interfaces every source implements.
//
// [dag] - Directed dependency graph with full-path cycle reporting and
// deterministic topological ordering.
//
// [inherit] - Inheritance chain resolution with cycle and depth guards.
//
// [resolver] - Dependency resolution: constraint collection, version
// selection, and complete conflict sets naming every requester.
//
// [compose] - Composition of an inheritance chain into one template via
// replace/override/merge strategies and named slots.
//
// ## Template Sources
//
// [store/local] - Filesystem template store: one directory per template
// version holding a TOML or YAML manifest plus file fragments.
//
// [registry] - HTTP registry client with caching and retry, and the
// mongo-backed store used by the registry server.
//
// ## Infrastructure
//
// [cache] - Byte-level caching (file, Redis, null) behind one interface,
// with consistent key layout between CLI and server.
//
// [observability] - Hook interfaces for resolution, cache, and HTTP
// events with no-op defaults.
//
// [graphio] - JSON and Graphviz DOT/SVG serialization of resolved graphs.
//
// ## Orchestration
//
// [pipeline] - The chain → resolve → compose pipeline used by CLI and
// server, with result caching and run statistics.
//
// [emit] - Writes a composed template beneath an output directory with
// traversal-safe paths and dry-run support.
//
// [errors] - Structured errors with machine-readable codes and input
// validation helpers.
//
// [buildinfo] - Build-time version information set via ldflags.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/resolver/...           # Specific package
//	go test -run Example                 # Examples only
//	go test -tags integration ./pkg/...  # Include integration tests
//
// [semver]: https://pkg.go.dev/github.com/templar-cli/templar/pkg/semver
// [template]: https://pkg.go.dev/github.com/templar-cli/templar/pkg/template
// [dag]: https://pkg.go.dev/github.com/templar-cli/templar/pkg/dag
// [inherit]: https://pkg.go.dev/github.com/templar-cli/templar/pkg/inherit
// [resolver]: https://pkg.go.dev/github.com/templar-cli/templar/pkg/resolver
// [compose]: https://pkg.go.dev/github.com/templar-cli/templar/pkg/compose
// [store/local]: https://pkg.go.dev/github.com/templar-cli/templar/pkg/store/local
// [registry]: https://pkg.go.dev/github.com/templar-cli/templar/pkg/registry
// [cache]: https://pkg.go.dev/github.com/templar-cli/templar/pkg/cache
// [observability]: https://pkg.go.dev/github.com/templar-cli/templar/pkg/observability
// [graphio]: https://pkg.go.dev/github.com/templar-cli/templar/pkg/graphio
// [pipeline]: https://pkg.go.dev/github.com/templar-cli/templar/pkg/pipeline
// [emit]: https://pkg.go.dev/github.com/templar-cli/templar/pkg/emit
// [errors]: https://pkg.go.dev/github.com/templar-cli/templar/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/templar-cli/templar/pkg/buildinfo
package pkg
