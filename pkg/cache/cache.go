// Package cache stores rendered artifacts keyed by pattern content.
//
// Two backends implement [Cache]: [FileCache] keeps zstd-compressed entries
// under the user's cache directory for CLI runs, and [RedisCache] shares
// entries between preview server instances. [NullCache] disables caching.
//
// Keys come from a [Keyer]. They hash the pattern bytes together with every
// option that changes the output, so a recoloured file or a different
// palette selection never hits a stale entry.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	TTLArtifact = 7 * 24 * time.Hour
	TTLInfo     = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the cached value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}
