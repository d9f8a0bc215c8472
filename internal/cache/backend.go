// Package cache implements the TTL cache in front of the third-party recipe
// catalog. Storage failures are reported as misses, never as errors.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Backend when the key does not exist
var ErrNotFound = errors.New("cache: key not found")

// Backend is the persistence layer behind a Store. The ttl passed to Set is
// a hint for storage-side eviction; freshness is decided by the Store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
