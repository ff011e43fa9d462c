// Package cache stores computed layouts and rendered artifacts.
//
// A [Cache] is a byte-oriented key/value store with per-entry TTLs. Keys
// come from a [Keyer], which hashes everything that affects a result, so a
// hit is always safe to reuse:
//
//	key := keyer.LayoutKey(cache.Hash(treeJSON), cache.LayoutKeyOpts{Direction: "TB"})
//	if data, ok, _ := c.Get(ctx, key); ok { ... }
//
// Three backends are provided: [NullCache] (disabled), [FileCache] for the
// CLI, and [RedisCache] for servers sharing one cache.
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store for encoded results.
//
// Get reports a miss with ok=false and a nil error; errors are reserved for
// backend failures. A zero TTL in Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default lifetimes.
const (
	// LayoutTTL bounds how long a computed layout is reused.
	LayoutTTL = 7 * 24 * time.Hour
	// ArtifactTTL bounds how long a rendered document is reused.
	ArtifactTTL = 24 * time.Hour
)
