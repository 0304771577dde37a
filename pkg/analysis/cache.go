package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/config"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/observability"
)

// Cache memoizes analysis calls keyed by (operation, input signature) so
// an equivalent request within the validity window never reaches the
// model twice. Concurrent identical calls are collapsed to a single
// in-flight invocation. Entries are process-local; durability across
// restarts is not a goal.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	group      singleflight.Group
}

type cacheEntry struct {
	value      any
	insertedAt time.Time
}

// NewCache creates a cache with the configured TTL and capacity.
func NewCache(cfg config.CacheConfig) *Cache {
	return &Cache{
		entries:    make(map[string]cacheEntry),
		ttl:        cfg.TTL.Duration(),
		maxEntries: cfg.MaxEntries,
	}
}

// Signature builds a normalized key for an operation and its inputs.
// Inputs are trimmed and joined with a separator that cannot occur in
// them after hashing, so ("ab","c") and ("a","bc") differ.
func Signature(operation string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(operation))
	for _, part := range parts {
		h.Write([]byte{0})
		h.Write([]byte(strings.TrimSpace(part)))
	}
	return operation + ":" + hex.EncodeToString(h.Sum(nil))
}

// Do returns the cached value for key, or invokes fn once and stores its
// result. Duplicate concurrent calls with the same key share one fn
// invocation. Errors are never cached.
func (c *Cache) Do(operation, key string, fn func() (any, error)) (any, error) {
	if value, ok := c.get(operation, key); ok {
		return value, nil
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		// A sibling call may have populated the entry while this one
		// waited on the flight group.
		if value, ok := c.get(operation, key); ok {
			return value, nil
		}
		value, err := fn()
		if err != nil {
			return nil, err
		}
		c.put(key, value)
		return value, nil
	})
	return value, err
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) get(operation, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		observability.CountCacheEvent(operation, "miss")
		return nil, false
	}
	if c.ttl > 0 && time.Since(entry.insertedAt) > c.ttl {
		delete(c.entries, key)
		observability.CountCacheEvent(operation, "expired")
		return nil, false
	}
	observability.CountCacheEvent(operation, "hit")
	return entry.value, true
}

func (c *Cache) put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = cacheEntry{value: value, insertedAt: time.Now()}
}

// evictOldestLocked removes the entry with the earliest insertion time.
// Linear scan is fine at the configured capacities.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.insertedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.insertedAt
		}
	}
	if oldestKey != "" {
		slog.Debug("Evicting cache entry", "key", oldestKey)
		delete(c.entries, oldestKey)
	}
}
