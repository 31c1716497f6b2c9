// Package cache stores lowered documents keyed by the content that produced them.
//
// The CLI lowers scene scripts repeatedly while a user edits them; a
// [FileCache] under the XDG cache directory lets an unchanged script skip
// building and lowering its graph. [NullCache] disables caching (--no-cache).
//
// Keys are built with [Key] from a namespace and the inputs that determine the
// cached value. [Hash] is also used by the engine exchange to fingerprint
// request bodies.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}
