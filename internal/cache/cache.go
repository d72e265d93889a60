package cache

import (
	"context"
	"time"
)

// Cache interface for caching operations
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// DeleteByPattern removes all values matching a pattern (e.g., "cache:catalog:*")
	DeleteByPattern(ctx context.Context, pattern string) error

	// Close closes the cache connection
	Close() error
}

// Key prefixes for catalog caching
const (
	// KeyCatalogRaw is the key for the raw upstream payload
	KeyCatalogRaw = "cache:catalog:raw"

	// KeyPrefixCatalog is the prefix for all catalog keys, used for
	// invalidation after a sync
	KeyPrefixCatalog = "cache:catalog:"

	// KeyCatalogCategories is the key for the distinct category list
	KeyCatalogCategories = "cache:catalog:categories"

	// KeyCatalogStats is the key for catalog statistics
	KeyCatalogStats = "cache:catalog:stats"
)

// TTL configurations for different cache types
const (
	// TTLRaw is the TTL for the raw upstream payload (60 seconds)
	TTLRaw = 60 * time.Second

	// TTLCategories is the TTL for the category list (5 minutes)
	TTLCategories = 5 * time.Minute

	// TTLStats is the TTL for catalog statistics (30 seconds)
	TTLStats = 30 * time.Second
)
