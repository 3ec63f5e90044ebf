package dispatch

import (
	"container/list"
	"sync"
)

// CacheEntry pairs a matched action with its wildcard captures. Entries are
// immutable once created.
type CacheEntry struct {
	Action *Action
	Params map[string]string
}

// actionCache is the two-tier path cache. Exact matches (no captures) live
// in an unbounded concurrent map; parameterized matches live in a bounded
// LRU guarded by a mutex, acceptable since wildcard paths are the colder
// tier. A racing miss for the same path stores equivalent entries, so last
// writer wins without a correctness impact.
type actionCache struct {
	capacity int

	full sync.Map // path -> *CacheEntry

	mu      sync.Mutex
	matched map[string]*list.Element
	order   *list.List // front = most recently used
}

type lruItem struct {
	path  string
	entry *CacheEntry
}

func newActionCache(capacity int) *actionCache {
	return &actionCache{
		capacity: capacity,
		matched:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// get returns the cached entry for path, consulting the exact tier first.
// A hit on the bounded tier refreshes its recency.
func (c *actionCache) get(path string) *CacheEntry {
	if e, ok := c.full.Load(path); ok {
		return e.(*CacheEntry)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.matched[path]
	if !ok {
		return nil
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruItem).entry
}

// putFull stores an exact-path entry.
func (c *actionCache) putFull(path string, entry *CacheEntry) {
	c.full.Store(path, entry)
}

// putMatched stores a parameterized entry, evicting the least-recently-used
// entry when the tier is at capacity.
func (c *actionCache) putMatched(path string, entry *CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.matched[path]; ok {
		el.Value.(*lruItem).entry = entry
		c.order.MoveToFront(el)
		return
	}
	c.matched[path] = c.order.PushFront(&lruItem{path: path, entry: entry})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.matched, oldest.Value.(*lruItem).path)
	}
}

// clear empties both tiers. Concurrent readers may observe a transiently
// empty cache, which only costs a recomputation.
func (c *actionCache) clear() {
	c.mu.Lock()
	c.matched = make(map[string]*list.Element)
	c.order.Init()
	c.mu.Unlock()
	c.full.Range(func(k, _ any) bool {
		c.full.Delete(k)
		return true
	})
}

// snapshot returns a merged copy of both tiers, exact entries taking
// precedence on key collision.
func (c *actionCache) snapshot() map[string]CacheEntry {
	out := make(map[string]CacheEntry)
	c.mu.Lock()
	for path, el := range c.matched {
		out[path] = *el.Value.(*lruItem).entry
	}
	c.mu.Unlock()
	c.full.Range(func(k, v any) bool {
		out[k.(string)] = *v.(*CacheEntry)
		return true
	})
	return out
}
