// internal/infrastructure/cache/ttl.go
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/your-org/menu-backend/internal/pkg/metrics"
)

// DefaultTTL applies when Set is called without a positive ttl
const DefaultTTL = 300 * time.Second

// maxGenerations bounds the per-prefix generation table
const maxGenerations = 10000

// Cache is a key-value table whose entries expire a fixed time after being
// written. Expiry is checked lazily on Get; there is no size bound and no
// background sweep, so entries stay until overwritten, read after expiry,
// deleted or cleared.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	defaultTTL time.Duration
	now        func() time.Time
	metrics    *metrics.CacheMetrics

	// Invalidation generations. Every DeletePrefix stamps its prefix with the
	// next seq value; prefixes without a stamp report floor.
	seq         uint64
	floor       uint64
	generations map[string]uint64
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Option configures a Cache
type Option func(*Cache)

// WithDefaultTTL overrides DefaultTTL
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// WithClock sets the time source used for expiry
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithMetrics reports hits, misses and size
func WithMetrics(m *metrics.CacheMetrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates an empty cache
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:     make(map[string]entry),
		defaultTTL:  DefaultTTL,
		now:         time.Now,
		generations: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set stores value under key for ttl, or the default TTL when ttl <= 0
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
	c.metrics.SetEntries(len(c.entries))
}

// Get returns the live value stored under key. An expired entry is removed.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.metrics.IncMiss()
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.metrics.IncExpiration()
		c.metrics.IncMiss()
		c.metrics.SetEntries(len(c.entries))
		return nil, false
	}

	c.metrics.IncHit()
	return e.value, true
}

// Delete removes keys
func (c *Cache) Delete(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.entries, key)
	}
	c.metrics.SetEntries(len(c.entries))
}

// DeletePrefix removes every key starting with prefix and returns how many were removed
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bump(prefix)

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	c.metrics.SetEntries(len(c.entries))
	return removed
}

// Clear removes every entry
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
	c.resetGenerations()
	c.metrics.SetEntries(0)
}

// Generation returns the invalidation generation of prefix. It changes
// whenever DeletePrefix(prefix) or Clear runs.
func (c *Cache) Generation(prefix string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation(prefix)
}

// SetIfGeneration stores value like Set, but only while the generation of
// prefix still equals gen. It reports whether the value was stored.
func (c *Cache) SetIfGeneration(prefix string, gen uint64, key string, value interface{}, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation(prefix) != gen {
		return false
	}
	c.entries[key] = entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
	c.metrics.SetEntries(len(c.entries))
	return true
}

func (c *Cache) generation(prefix string) uint64 {
	if gen, ok := c.generations[prefix]; ok {
		return gen
	}
	return c.floor
}

func (c *Cache) bump(prefix string) {
	if len(c.generations) >= maxGenerations {
		c.resetGenerations()
	}
	c.seq++
	c.generations[prefix] = c.seq
}

// resetGenerations forgets every stamp. Raising floor to the latest seq
// changes the generation of every prefix, so no pending SetIfGeneration
// can succeed against a dropped stamp.
func (c *Cache) resetGenerations() {
	c.seq++
	c.floor = c.seq
	c.generations = make(map[string]uint64)
}

// Len returns the number of held entries, including expired ones not yet read
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
