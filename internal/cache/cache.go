// Package cache provides the process-wide tagged memoization layer for
// read queries. Entries are associated with invalidation tags at set time;
// writes evict by tag, and the next read recomputes from storage.
package cache

import (
	"context"
	"time"
)

const (
	// ExpiryDefaultInMemory is a housekeeping bound on entry lifetime.
	// Correctness never depends on it; tag invalidation is the contract.
	ExpiryDefaultInMemory = 30 * time.Minute

	// CleanupInterval is how often expired entries are swept.
	CleanupInterval = 10 * time.Minute
)

// Cache is the tagged cache interface.
type Cache interface {
	// Get returns the cached value for key, if present.
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores value under key and associates it with tags.
	Set(ctx context.Context, key string, value interface{}, tags []string)

	// DeleteByTags evicts every entry whose tag set intersects tags.
	DeleteByTags(ctx context.Context, tags []string)

	// Flush removes all entries.
	Flush(ctx context.Context)
}
