package cache

import (
	"context"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

// InMemoryCache is the in-process tagged cache. Values are stored in a
// go-cache store; a reverse index maps each tag to the keys carrying it so
// that eviction by tag does not scan the whole store.
//
// Concurrent populates are last-writer-wins; there is no lock around the
// read-fetch-set cycle. A read racing a write's invalidation can populate
// an entry computed from pre-write state, which the next invalidate-then-
// read cycle heals.
type InMemoryCache struct {
	store *gocache.Cache

	mu        sync.Mutex
	keysByTag map[string]map[string]struct{}
	tagsByKey map[string][]string
}

var _ Cache = (*InMemoryCache)(nil)

// NewInMemoryCache creates an empty tagged cache.
func NewInMemoryCache() *InMemoryCache {
	c := &InMemoryCache{
		store:     gocache.New(ExpiryDefaultInMemory, CleanupInterval),
		keysByTag: make(map[string]map[string]struct{}),
		tagsByKey: make(map[string][]string),
	}
	// Keep the tag index in sync when the sweeper expires entries.
	c.store.OnEvicted(func(key string, _ interface{}) {
		c.mu.Lock()
		c.removeKeyLocked(key)
		c.mu.Unlock()
	})
	return c
}

// Get retrieves a value from the cache.
func (c *InMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	return c.store.Get(key)
}

// Set stores a value and records its tags.
func (c *InMemoryCache) Set(_ context.Context, key string, value interface{}, tags []string) {
	c.mu.Lock()
	c.removeKeyLocked(key)
	c.tagsByKey[key] = tags
	for _, tag := range tags {
		keys, ok := c.keysByTag[tag]
		if !ok {
			keys = make(map[string]struct{})
			c.keysByTag[tag] = keys
		}
		keys[key] = struct{}{}
	}
	c.mu.Unlock()

	c.store.Set(key, value, gocache.DefaultExpiration)
}

// DeleteByTags evicts every entry carrying any of the given tags.
func (c *InMemoryCache) DeleteByTags(_ context.Context, tags []string) {
	c.mu.Lock()
	var evict []string
	for _, tag := range tags {
		for key := range c.keysByTag[tag] {
			evict = append(evict, key)
		}
	}
	for _, key := range evict {
		c.removeKeyLocked(key)
	}
	c.mu.Unlock()

	for _, key := range evict {
		c.store.Delete(key)
	}
}

// Flush removes all items from the cache.
func (c *InMemoryCache) Flush(_ context.Context) {
	c.mu.Lock()
	c.keysByTag = make(map[string]map[string]struct{})
	c.tagsByKey = make(map[string][]string)
	c.mu.Unlock()

	c.store.Flush()
}

// removeKeyLocked drops key from the tag index. Caller holds mu.
func (c *InMemoryCache) removeKeyLocked(key string) {
	for _, tag := range c.tagsByKey[key] {
		if keys, ok := c.keysByTag[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(c.keysByTag, tag)
			}
		}
	}
	delete(c.tagsByKey, key)
}
