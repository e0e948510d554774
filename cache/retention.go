// Package cache provides a sharded LRU retention cache.
//
// The render pipeline uses it to hold on to retired chunk resources
// (packed instance slices, GPU buffer handles) keyed by chunk, so that a
// chunk slot that empties and later repopulates reuses its allocations
// instead of churning the allocator. Eviction is observable through an
// EvictFunc so GPU-side resources are released, never leaked.
package cache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
)

// Default configuration constants.
const (
	// ShardCount is the number of shards for reduced lock contention.
	// Must be a power of 2 for fast modulo via bitwise AND.
	ShardCount = 16

	// DefaultCapacity is the default maximum entries per shard.
	DefaultCapacity = 256

	// shardMask is used for fast shard selection (ShardCount - 1).
	shardMask = ShardCount - 1
)

// Hasher computes a hash for a key, used for shard selection.
type Hasher[K any] func(K) uint64

// Uint64Hasher returns the key itself as the hash (identity hash).
// Suitable for packed chunk keys, which already mix map id and chunk
// coordinate bits.
func Uint64Hasher(u uint64) uint64 { return u }

// StringHasher computes FNV-1a hash of a string key.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s)) // fnv.Write never returns an error
	return h.Sum64()
}

// EvictFunc observes entries leaving the cache through capacity eviction
// or Clear. It is called with the shard lock held; keep it fast.
type EvictFunc[K comparable, V any] func(K, V)

// Cache is a thread-safe, sharded LRU retention cache.
//
// Entries removed by Take or Delete do NOT trigger the eviction callback:
// the caller took ownership. Capacity eviction and Clear do.
type Cache[K comparable, V any] struct {
	shards   [ShardCount]*shard[K, V]
	hasher   Hasher[K]
	capacity int // per shard
	onEvict  EvictFunc[K, V]

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// shard is one lock domain of the cache.
type shard[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]*entry[K, V]
	lru     lruList[K]
}

// entry holds a cached value with its LRU node.
type entry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

// New creates a cache with the given per-shard capacity and hasher.
// Total capacity is approximately capacity * ShardCount.
// If capacity <= 0, DefaultCapacity is used. onEvict may be nil.
func New[K comparable, V any](capacity int, hasher Hasher[K], onEvict EvictFunc[K, V]) *Cache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache[K, V]{
		hasher:   hasher,
		capacity: capacity,
		onEvict:  onEvict,
	}
	for i := range c.shards {
		c.shards[i] = &shard[K, V]{
			entries: make(map[K]*entry[K, V]),
		}
	}
	return c
}

// getShard returns the shard for a key.
// Bitwise AND works because ShardCount is a power of two.
func (c *Cache[K, V]) getShard(key K) *shard[K, V] {
	return c.shards[c.hasher(key)&shardMask]
}

// Get retrieves a cached value by key, refreshing its LRU position.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	s := c.getShard(key)

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	s.lru.moveToFront(e.node)
	value := e.value
	s.mu.Unlock()

	c.hits.Add(1)
	return value, true
}

// Set stores a value. If the shard exceeds capacity, the oldest entries
// are evicted through the eviction callback.
//
// The value is stored as-is (not copied). Callers must not modify it
// after caching unless they Take it back.
func (c *Cache[K, V]) Set(key K, value V) {
	s := c.getShard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[key]; ok {
		existing.value = value
		s.lru.moveToFront(existing.node)
		return
	}

	for s.lru.len >= c.capacity {
		oldest, ok := s.lru.removeOldest()
		if !ok {
			break
		}
		old := s.entries[oldest]
		delete(s.entries, oldest)
		c.evictions.Add(1)
		if c.onEvict != nil && old != nil {
			c.onEvict(oldest, old.value)
		}
	}

	s.entries[key] = &entry[K, V]{value: value, node: s.lru.pushFront(key)}
}

// Take removes and returns the value for a key, transferring ownership to
// the caller. The eviction callback is not invoked.
func (c *Cache[K, V]) Take(key K) (V, bool) {
	s := c.getShard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	s.lru.remove(e.node)
	delete(s.entries, key)
	c.hits.Add(1)
	return e.value, true
}

// Delete removes an entry without invoking the eviction callback.
// Returns true if the entry was found and removed.
func (c *Cache[K, V]) Delete(key K) bool {
	s := c.getShard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	s.lru.remove(e.node)
	delete(s.entries, key)
	return true
}

// Clear removes all entries, invoking the eviction callback for each.
func (c *Cache[K, V]) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		if c.onEvict != nil {
			for key, e := range s.entries {
				c.onEvict(key, e.value)
			}
		}
		s.entries = make(map[K]*entry[K, V])
		s.lru = lruList[K]{}
		s.mu.Unlock()
	}
}

// Len returns the total number of entries across all shards.
func (c *Cache[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}

// Capacity returns the per-shard capacity.
func (c *Cache[K, V]) Capacity() int { return c.capacity }

// Stats contains cache behavior counters.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	HitRate   float64
	Evictions uint64
}

// Stats returns current cache statistics. Mostly lock-free.
func (c *Cache[K, V]) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return Stats{
		Len:       c.Len(),
		Capacity:  c.capacity,
		Hits:      hits,
		Misses:    misses,
		HitRate:   hitRate,
		Evictions: c.evictions.Load(),
	}
}

// lruList is an intrusive doubly-linked recency list. Front is most
// recently used. The zero value is ready to use.
type lruList[K any] struct {
	front *lruNode[K]
	back  *lruNode[K]
	len   int
}

type lruNode[K any] struct {
	key        K
	prev, next *lruNode[K]
}

func (l *lruList[K]) pushFront(key K) *lruNode[K] {
	n := &lruNode[K]{key: key, next: l.front}
	if l.front != nil {
		l.front.prev = n
	}
	l.front = n
	if l.back == nil {
		l.back = n
	}
	l.len++
	return n
}

func (l *lruList[K]) remove(n *lruNode[K]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.front = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.back = n.prev
	}
	n.prev, n.next = nil, nil
	l.len--
}

func (l *lruList[K]) moveToFront(n *lruNode[K]) {
	if l.front == n {
		return
	}
	l.remove(n)
	n.next = l.front
	if l.front != nil {
		l.front.prev = n
	}
	l.front = n
	if l.back == nil {
		l.back = n
	}
	l.len++
}

func (l *lruList[K]) removeOldest() (K, bool) {
	if l.back == nil {
		var zero K
		return zero, false
	}
	n := l.back
	l.remove(n)
	return n.key, true
}
