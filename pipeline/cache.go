package pipeline

import (
	"context"
	"sync"

	"github.com/dshills/resumeflow/pipeline/emit"
)

// Cache key conventions. Per-document extraction results use
// ExtractCacheKey to derive a key from the document identifier.
const (
	CacheKeySchema    = "schema"
	CacheKeyTemplates = "templates"
)

// ExtractCacheKey returns the cache key for a document's extracted text.
func ExtractCacheKey(docID string) string {
	return "extract:" + docID
}

// Cache memoizes expensive lookups for the lifetime of an owner session.
// It never persists: restarting the process empties it, and the next
// lookup recomputes.
//
// Thread-safe. A compute in flight for one key does not block lookups
// for other keys.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry

	ownerID string
	emitter emit.Emitter
	metrics *Metrics
}

type cacheEntry struct {
	once  sync.Once
	value string
	err   error
}

// NewCache creates a session cache for one owner. The emitter and
// metrics may be nil.
func NewCache(ownerID string, emitter emit.Emitter, metrics *Metrics) *Cache {
	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}
	return &Cache{
		entries: make(map[string]*cacheEntry),
		ownerID: ownerID,
		emitter: emitter,
		metrics: metrics,
	}
}

// GetOrCompute returns the cached value for key, computing it with fn on
// first use. Concurrent callers for the same key share a single compute;
// all of them receive the same result. A failed compute is not cached, so
// a later call retries.
func (c *Cache) GetOrCompute(ctx context.Context, key string, fn func(ctx context.Context) (string, error)) (string, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok {
		entry = &cacheEntry{}
		c.entries[key] = entry
	}
	c.mu.Unlock()

	computed := false
	entry.once.Do(func() {
		computed = true
		c.metrics.IncrementCacheMisses(key)
		c.emitter.Emit(emit.Event{
			OwnerID: c.ownerID,
			Msg:     emit.MsgCacheMiss,
			Meta:    map[string]interface{}{"key": key},
		})
		entry.value, entry.err = fn(ctx)
		if entry.err != nil {
			// Allow retry: drop the failed entry.
			c.mu.Lock()
			if c.entries[key] == entry {
				delete(c.entries, key)
			}
			c.mu.Unlock()
		}
	})

	if !computed && entry.err == nil {
		c.metrics.IncrementCacheHits(key)
		c.emitter.Emit(emit.Event{
			OwnerID: c.ownerID,
			Msg:     emit.MsgCacheHit,
			Meta:    map[string]interface{}{"key": key},
		})
	}
	return entry.value, entry.err
}

// Invalidate removes a key from the cache.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
