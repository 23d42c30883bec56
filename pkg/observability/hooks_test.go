package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Resolve hooks
	r := NoopResolveHooks{}
	r.OnChainStart(ctx, "web-app@1.0.0")
	r.OnChainComplete(ctx, "web-app@1.0.0", 3, time.Second, nil)
	r.OnResolveStart(ctx, "web-app@1.0.0")
	r.OnResolveComplete(ctx, "web-app@1.0.0", 12, 0, time.Second, nil)
	r.OnComposeStart(ctx, "web-app@1.0.0", 3)
	r.OnComposeComplete(ctx, "web-app@1.0.0", 8, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "manifest")
	c.OnCacheMiss(ctx, "catalog")
	c.OnCacheSet(ctx, "result", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "registry.example.com", "/api/v1/templates/web-app")
	h.OnResponse(ctx, "GET", "registry.example.com", "/api/v1/templates/web-app", 200, time.Second)
	h.OnError(ctx, "GET", "registry.example.com", "/api/v1/templates/web-app", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Resolve().(NoopResolveHooks); !ok {
		t.Error("Resolve() should return NoopResolveHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customResolve := &testResolveHooks{}
	SetResolveHooks(customResolve)
	if Resolve() != customResolve {
		t.Error("SetResolveHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Resolve().(NoopResolveHooks); !ok {
		t.Error("Reset() should restore NoopResolveHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testResolveHooks{}
	SetResolveHooks(custom)

	// Setting nil should be ignored
	SetResolveHooks(nil)

	if Resolve() != custom {
		t.Error("SetResolveHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testResolveHooks struct{ NoopResolveHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
