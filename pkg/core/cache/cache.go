// ============================================================================
// logflow - Structured logging pipeline
// ============================================================================
//
// Package:     cache
// Description: Bounded in-memory cache with TTL, used to remember batch IDs
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package cache

import (
	"sync"
	"time"

	"github.com/msto63/logflow/foundation/utils/clockx"
)

// Entry represents a cached item with expiration
type Entry struct {
	Value      any
	Expiration time.Time
}

// expired reports whether the entry has expired at now
func (e *Entry) expired(now time.Time) bool {
	if e.Expiration.IsZero() {
		return false // Never expires
	}
	return !now.Before(e.Expiration)
}

// Cache is a thread-safe in-memory cache with TTL support. When full, the
// oldest inserted entry is evicted. Expired entries are dropped lazily.
type Cache struct {
	mu       sync.Mutex
	items    map[string]*Entry
	order    []string // insertion order, may hold stale keys
	maxItems int
	ttl      time.Duration
	clock    clockx.Clock

	// Metrics
	hits   int64
	misses int64
}

// Config holds cache configuration
type Config struct {
	MaxItems int
	TTL      time.Duration // zero keeps entries until evicted
	Clock    clockx.Clock
}

// DefaultConfig returns default cache configuration
func DefaultConfig() Config {
	return Config{
		MaxItems: 4096,
		TTL:      10 * time.Minute,
	}
}

// New creates a new cache instance
func New(cfg Config) *Cache {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultConfig().MaxItems
	}
	if cfg.TTL < 0 {
		cfg.TTL = 0
	}
	if cfg.Clock == nil {
		cfg.Clock = clockx.Real()
	}

	return &Cache{
		items:    make(map[string]*Entry, cfg.MaxItems),
		maxItems: cfg.MaxItems,
		ttl:      cfg.TTL,
		clock:    cfg.Clock,
	}
}

// Get retrieves a value from the cache
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.items[key]
	if exists && entry.expired(c.clock.Now()) {
		delete(c.items, key)
		exists = false
	}
	if !exists {
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.Value, true
}

// Contains reports whether key is present and unexpired
func (c *Cache) Contains(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Set stores a value with the default TTL. Setting an existing key
// refreshes its expiration but keeps its eviction position.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var exp time.Time
	if c.ttl > 0 {
		exp = c.clock.Now().Add(c.ttl)
	}

	if _, exists := c.items[key]; !exists {
		if len(c.items) >= c.maxItems {
			c.cleanup()
		}
		for len(c.items) >= c.maxItems {
			c.evictOldest()
		}
		c.order = append(c.order, key)
		if len(c.order) > 2*c.maxItems {
			c.cleanup()
		}
	}
	c.items[key] = &Entry{Value: value, Expiration: exp}
}

// Delete removes a value from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len returns the number of items in the cache, expired ones included
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns cache statistics
func (c *Cache) Stats() (hits, misses int64, hitRate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hits = c.hits
	misses = c.misses
	total := hits + misses
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return
}

// evictOldest removes the oldest inserted entry (must be called with lock held)
func (c *Cache) evictOldest() {
	for len(c.order) > 0 {
		key := c.order[0]
		c.order = c.order[1:]
		if _, ok := c.items[key]; ok {
			delete(c.items, key)
			return
		}
	}
}

// cleanup removes all expired entries (must be called with lock held)
func (c *Cache) cleanup() {
	now := c.clock.Now()
	for key, entry := range c.items {
		if entry.expired(now) {
			delete(c.items, key)
		}
	}

	live := c.order[:0]
	for _, key := range c.order {
		if _, ok := c.items[key]; ok {
			live = append(live, key)
		}
	}
	c.order = live
}
