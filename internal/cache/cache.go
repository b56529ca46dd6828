package cache

import "sync"

// Cache is a generic thread-safe LRU cache with a soft limit.
// When the cache exceeds softLimit, the least recently used quarter of the
// entries is evicted.
//
// Entries are owned by the cache: every value that leaves it by eviction,
// replacement, Delete or Clear is passed to the eviction callback, outside
// the lock.
//
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	entries   map[K]*lruNode[K, V]
	order     lruList[K, V]
	softLimit int
	onEvict   func(K, V)

	hits      uint64
	misses    uint64
	evictions uint64
}

// entry is a key/value pair handed to the eviction callback.
type entry[K comparable, V any] struct {
	key   K
	value V
}

// New creates a cache with the given soft limit and eviction callback.
// A softLimit of 0 means unlimited; onEvict may be nil.
func New[K comparable, V any](softLimit int, onEvict func(K, V)) *Cache[K, V] {
	return &Cache[K, V]{
		entries:   make(map[K]*lruNode[K, V]),
		softLimit: softLimit,
		onEvict:   onEvict,
	}
}

// Get retrieves a value and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.MoveToFront(node)
	return node.value, true
}

// Set stores a value. A replaced value is passed to the eviction callback.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	var out []entry[K, V]
	if node, ok := c.entries[key]; ok {
		out = append(out, entry[K, V]{key, node.value})
		node.value = value
		c.order.MoveToFront(node)
	} else {
		c.entries[key] = c.order.PushFront(key, value)
		out = c.evictLocked(out)
	}
	c.mu.Unlock()
	c.release(out)
}

// GetOrCreate returns the cached value or creates it.
// create runs under the lock so concurrent callers never build the same key
// twice. A create error is returned and nothing is cached.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	if node, ok := c.entries[key]; ok {
		c.hits++
		c.order.MoveToFront(node)
		c.mu.Unlock()
		return node.value, nil
	}
	c.misses++

	value, err := create()
	if err != nil {
		c.mu.Unlock()
		return value, err
	}
	c.entries[key] = c.order.PushFront(key, value)
	out := c.evictLocked(nil)
	c.mu.Unlock()
	c.release(out)
	return value, nil
}

// Delete removes an entry, passing it to the eviction callback.
// Returns true if the entry was found.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	node, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
		c.order.Remove(node)
	}
	c.mu.Unlock()
	if ok {
		c.release([]entry[K, V]{{node.key, node.value}})
	}
	return ok
}

// Clear removes all entries, passing each to the eviction callback.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	out := make([]entry[K, V], 0, len(c.entries))
	c.order.Each(func(n *lruNode[K, V]) {
		out = append(out, entry[K, V]{n.key, n.value})
	})
	c.entries = make(map[K]*lruNode[K, V])
	c.order.Clear()
	c.mu.Unlock()
	c.release(out)
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Capacity returns the soft limit of the cache.
func (c *Cache[K, V]) Capacity() int {
	return c.softLimit
}

// Keys returns the cached keys from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.entries))
	c.order.Each(func(n *lruNode[K, V]) { keys = append(keys, n.key) })
	return keys
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Len:       len(c.entries),
		Capacity:  c.softLimit,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// evictLocked removes least recently used entries until the cache is at
// three quarters of the soft limit, appending them to out.
// Caller must hold c.mu.
func (c *Cache[K, V]) evictLocked(out []entry[K, V]) []entry[K, V] {
	if c.softLimit <= 0 || len(c.entries) <= c.softLimit {
		return out
	}
	targetSize := max(c.softLimit*3/4, 1)
	for len(c.entries) > targetSize {
		node := c.order.RemoveOldest()
		if node == nil {
			break
		}
		delete(c.entries, node.key)
		c.evictions++
		out = append(out, entry[K, V]{node.key, node.value})
	}
	return out
}

func (c *Cache[K, V]) release(out []entry[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, e := range out {
		c.onEvict(e.key, e.value)
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the soft limit.
	Capacity int
	// Hits is the number of lookups that found an entry.
	Hits uint64
	// Misses is the number of lookups that did not.
	Misses uint64
	// HitRate is the cache hit rate 0.0 to 1.0.
	HitRate float64
	// Evictions is the number of entries evicted by the soft limit.
	Evictions uint64
}
