// Package cache provides content-addressed caching for composed documents
// and rendered flow graphs.
//
// Keys are derived from content hashes of the inputs (see Keyer), so a cache
// entry can never go stale in the usual sense: changed inputs produce a new
// key. TTLs exist only to bound storage growth.
//
// Three backends are provided: FileCache for CLI usage, RedisCache for the
// server, and NullCache to disable caching entirely.
package cache

import (
	"context"
	"time"
)

// Default TTLs per artifact class.
const (
	// ComposeTTL bounds how long a composed document stays cached.
	ComposeTTL = 24 * time.Hour

	// FlowSVGTTL bounds how long a rendered flow graph stays cached.
	FlowSVGTTL = 24 * time.Hour
)

// Cache is the backend-agnostic byte cache.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A zero TTL on Set means no expiration.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
