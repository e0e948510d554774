package cache

import (
	"fmt"
	"testing"
)

func TestSetGet(t *testing.T) {
	c := New[uint64, string](8, Uint64Hasher, nil)

	c.Set(1, "one")
	c.Set(2, "two")

	if v, ok := c.Get(1); !ok || v != "one" {
		t.Errorf("Get(1) = %q, %v; want \"one\", true", v, ok)
	}
	if _, ok := c.Get(3); ok {
		t.Error("Get(3) reported a hit for an absent key")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestSetOverwrite(t *testing.T) {
	c := New[uint64, string](8, Uint64Hasher, nil)
	c.Set(1, "old")
	c.Set(1, "new")
	if v, _ := c.Get(1); v != "new" {
		t.Errorf("Get after overwrite = %q, want \"new\"", v)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d after overwrite, want 1", c.Len())
	}
}

func TestEvictionCallback(t *testing.T) {
	var evicted []uint64
	c := New[uint64, int](2, func(k uint64) uint64 { return 0 }, // single shard
		func(k uint64, _ int) { evicted = append(evicted, k) })

	c.Set(1, 10)
	c.Set(2, 20)
	c.Set(3, 30) // exceeds capacity, evicts the oldest

	if len(evicted) != 1 || evicted[0] != 1 {
		t.Fatalf("evicted = %v, want [1]", evicted)
	}
	if _, ok := c.Get(1); ok {
		t.Error("evicted key still present")
	}
	if _, ok := c.Get(3); !ok {
		t.Error("newest key missing")
	}
}

func TestLRUOrderOnEviction(t *testing.T) {
	var evicted []uint64
	c := New[uint64, int](2, func(k uint64) uint64 { return 0 },
		func(k uint64, _ int) { evicted = append(evicted, k) })

	c.Set(1, 10)
	c.Set(2, 20)
	c.Get(1)     // refresh key 1
	c.Set(3, 30) // must evict key 2, not 1

	if len(evicted) != 1 || evicted[0] != 2 {
		t.Fatalf("evicted = %v, want [2]", evicted)
	}
}

func TestTakeSkipsCallback(t *testing.T) {
	calls := 0
	c := New[uint64, int](8, Uint64Hasher, func(uint64, int) { calls++ })

	c.Set(1, 10)
	v, ok := c.Take(1)
	if !ok || v != 10 {
		t.Fatalf("Take = %d, %v; want 10, true", v, ok)
	}
	if calls != 0 {
		t.Errorf("Take triggered %d eviction callbacks", calls)
	}
	if _, ok := c.Take(1); ok {
		t.Error("second Take reported a hit")
	}
}

func TestDelete(t *testing.T) {
	calls := 0
	c := New[uint64, int](8, Uint64Hasher, func(uint64, int) { calls++ })

	c.Set(1, 10)
	if !c.Delete(1) {
		t.Error("Delete of a present key reported false")
	}
	if c.Delete(1) {
		t.Error("Delete of an absent key reported true")
	}
	if calls != 0 {
		t.Errorf("Delete triggered %d eviction callbacks", calls)
	}
}

func TestClearRunsCallback(t *testing.T) {
	calls := 0
	c := New[uint64, int](8, Uint64Hasher, func(uint64, int) { calls++ })

	for i := uint64(0); i < 5; i++ {
		c.Set(i, int(i))
	}
	c.Clear()
	if calls != 5 {
		t.Errorf("Clear triggered %d callbacks, want 5", calls)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after Clear, want 0", c.Len())
	}
}

func TestStats(t *testing.T) {
	c := New[uint64, int](8, Uint64Hasher, nil)
	c.Set(1, 10)
	c.Get(1)
	c.Get(2)

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("Stats = %+v, want 1 hit and 1 miss", s)
	}
}

func TestStringHasherSpread(t *testing.T) {
	c := New[string, int](4, StringHasher, nil)
	for i := 0; i < 64; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
	}
	if c.Len() != 64 {
		t.Errorf("Len = %d, want 64", c.Len())
	}
}
