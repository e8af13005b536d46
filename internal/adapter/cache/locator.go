// Package cache memoizes point placements in front of a region locator.
package cache

import (
	"fmt"
	"sync"

	"github.com/couchcryptid/quake-threat-service/internal/domain"
	"github.com/couchcryptid/quake-threat-service/internal/observability"
)

// CachedLocator wraps a Locator with an in-memory LRU cache keyed on the
// point rounded to 1e-6 degrees.
type CachedLocator struct {
	inner   domain.Locator
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedLocator creates a cache decorator around a locator. metrics may be nil.
func NewCachedLocator(inner domain.Locator, maxEntries int, metrics *observability.Metrics) *CachedLocator {
	return &CachedLocator{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

// Locate implements domain.Locator.
func (c *CachedLocator) Locate(pt domain.GeoPoint) domain.Placement {
	key := fmt.Sprintf("%.6f,%.6f", pt.Lat, pt.Lon)
	if placement, ok := c.cache.get(key); ok {
		c.observe("hit")
		return placement
	}
	c.observe("miss")

	placement := c.inner.Locate(pt)
	c.cache.put(key, placement)
	return placement
}

// Len returns the number of cached placements.
func (c *CachedLocator) Len() int {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	return len(c.cache.entries)
}

func (c *CachedLocator) observe(result string) {
	if c.metrics == nil {
		return
	}
	c.metrics.PlacementCache.WithLabelValues(result).Inc()
}

// lruCache is a simple thread-safe LRU cache for placements.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.Placement
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.Placement, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Placement{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Placement) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.unlink(c.tail)
}
