// Package cache stores downloaded thumbnail bytes between runs.
//
// Three backends implement [Cache]: [FileCache] for local use, [RedisCache]
// for a shared cache, and [NullCache] to disable caching. Keys are opaque
// strings; callers usually derive them from a URL with [Key].
package cache

import (
	"context"
	"errors"
	"time"
)

// Cache is a byte store with per-entry expiry. Get reports a miss with
// hit == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ErrBackend is returned when the cache backend cannot be reached.
var ErrBackend = errors.New("cache backend unavailable")

// DefaultTTL is how long thumbnails stay cached.
const DefaultTTL = 7 * 24 * time.Hour
