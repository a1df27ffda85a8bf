// Package cache stores analyzer responses between runs.
//
// CI pipelines frequently re-run against unchanged configuration. When the
// cache is enabled, the analyzer client looks up a response keyed by a hash
// of the exact request body before sending it, and stores successful
// responses for a configurable TTL.
//
// # Backends
//
//   - [FileCache]: JSON files sharded by key hash, for local and CI runners
//     with a persistent workspace.
//   - [RedisCache]: a shared Redis instance, for fleets of runners.
//   - [NullCache]: stores nothing; the default.
//
// # Keys
//
// Keys are produced by a [Keyer]. [ScopedKeyer] prefixes every key with a
// namespace derived from the API key so tenants never share entries.
//
// # Retries
//
// [Retryable], [IsRetryable] and [RetryWithBackoff] are shared by the
// network-facing code that fills the cache.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the backend.
	Close() error
}
