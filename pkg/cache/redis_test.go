//go:build integration

package cache

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"
)

// Requires a running Redis. Set TEMPLAR_TEST_REDIS_ADDR, e.g.
// localhost:6379, and run with -tags integration.
func redisCache(t *testing.T) Cache {
	t.Helper()
	addr := os.Getenv("TEMPLAR_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEMPLAR_TEST_REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr, DB: 15})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisRoundTrip(t *testing.T) {
	c := redisCache(t)
	ctx := context.Background()
	key := "test:" + t.Name()

	if _, hit, _ := c.Get(ctx, key); hit {
		t.Fatal("unexpected hit before Set")
	}

	want := []byte(`{"name":"web-app"}`)
	if err := c.Set(ctx, key, want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, hit, err := c.Get(ctx, key)
	if err != nil || !hit {
		t.Fatalf("Get after Set: hit=%v err=%v", hit, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Get = %q, want %q", got, want)
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("hit after Delete")
	}
}

func TestRedisExpiration(t *testing.T) {
	c := redisCache(t)
	ctx := context.Background()
	key := "test:" + t.Name()

	if err := c.Set(ctx, key, []byte("short-lived"), time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(1500 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("entry should have expired server-side")
	}
}
