// Package cache provides caching for flow documents, computed layouts, and
// rendered artifacts.
//
// Layout computation is deterministic: the same graph snapshot with the
// same tuning always produces the same positions, so results are cached by
// content hash. Three backends are provided:
//
//   - [FileCache]: on-disk cache for CLI usage
//   - [RedisCache]: shared cache for the HTTP service
//   - [NullCache]: disabled caching
//
// Keys are produced by a [Keyer], so all callers agree on the key scheme
// and multi-tenant deployments can isolate namespaces with [ScopedKeyer].
package cache

import (
	"context"
	"time"
)

// Cache lifetimes per value class. Documents are invalidated explicitly on
// store writes, so they live longest; rendered artifacts are the cheapest to
// recompute and expire first.
const (
	TTLDocument = 24 * time.Hour
	TTLLayout   = 12 * time.Hour
	TTLArtifact = 6 * time.Hour
)

// Cache stores opaque byte values with optional expiration.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a miss;
// the error return is reserved for backend failures. Implementations must
// be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A non-positive ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
