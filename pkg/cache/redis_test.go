//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

// Run with: STEMMA_TEST_REDIS=localhost:6379 go test -tags integration ./pkg/cache
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("STEMMA_TEST_REDIS")
	if addr == "" {
		t.Skip("STEMMA_TEST_REDIS not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "stemma-test:missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, "stemma-test:k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "stemma-test:k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "stemma-test:k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "stemma-test:k"); hit {
		t.Error("entry survived Delete")
	}
}
