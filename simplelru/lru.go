package simplelru

import (
	"errors"
	"time"

	"github.com/lightningnetwork/lnd/clock"
)

// EvictCallback is used to get a callback whenever an entry leaves the
// cache, whether through capacity eviction, Remove, PurgeBefore, or
// Flush.
type EvictCallback[K comparable, V any] func(key K, value V)

// Entry is a single key/value pair as reported by Entries.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Stats is a snapshot of the lookup counters. Only Get moves them: a
// found key counts as a hit, an absent key as a miss.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// nilHandle marks the absence of a neighbor in the recency list.
const nilHandle = -1

// Compile time assertion that LRU implements LRUCache.
var _ LRUCache[int, int] = (*LRU[int, int])(nil)

// slot holds one cached entry in the arena. The recency list is
// threaded through the slots as next/prev handles rather than node
// pointers, so the index can address entries by stable ints.
type slot[K comparable, V any] struct {
	key        K
	value      V
	accessedAt int64 // unix milliseconds of the last Put or Get hit
	next       int
	prev       int
}

// LRU implements a non-thread safe fixed size LRU cache. Entries live
// in an arena of slots addressed by integer handles; items maps keys
// to handles, and head/tail bound the recency list from most to least
// recently used.
type LRU[K comparable, V any] struct {
	slots    []slot[K, V]
	free     []int
	items    map[K]int
	head     int
	tail     int
	capacity int
	stats    Stats
	onEvict  EvictCallback[K, V]
	clock    clock.Clock
}

// NewLRU constructs an LRU of the given capacity. A nil clk falls back
// to the wall clock; tests inject a clock.TestClock to drive access
// stamps deterministically.
func NewLRU[K comparable, V any](capacity int, onEvict EvictCallback[K, V], clk clock.Clock) (*LRU[K, V], error) {
	if capacity < 1 {
		return nil, errors.New("must provide a positive capacity")
	}
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	c := &LRU[K, V]{
		slots:    make([]slot[K, V], 0, capacity),
		items:    make(map[K]int, capacity),
		head:     nilHandle,
		tail:     nilHandle,
		capacity: capacity,
		onEvict:  onEvict,
		clock:    clk,
	}
	return c, nil
}

func (c *LRU[K, V]) now() int64 {
	return c.clock.Now().UnixMilli()
}

// Put inserts a value under key, evicting the least recently used
// entry if a new key would exceed capacity. An already-present key is
// replaced outright: its old position is discarded and it re-enters at
// the head with a fresh stamp, the same as a brand new insert.
// Returns true if an eviction occurred.
func (c *LRU[K, V]) Put(key K, value V) (evicted bool) {
	now := c.now()

	if i, ok := c.items[key]; ok {
		c.detach(i)
		c.slots[i] = slot[K, V]{key: key, value: value, accessedAt: now}
		c.attachFront(i)
		return false
	}

	if len(c.items) >= c.capacity {
		c.removeOldest()
		evicted = true
	}

	i := c.alloc()
	c.slots[i] = slot[K, V]{key: key, value: value, accessedAt: now}
	c.items[key] = i
	c.attachFront(i)
	return evicted
}

// Get looks up a key's value, promoting the entry to most recently
// used and refreshing its access stamp on a hit.
func (c *LRU[K, V]) Get(key K) (value V, ok bool) {
	i, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return value, false
	}
	if i != c.head {
		c.detach(i)
		c.attachFront(i)
	}
	s := &c.slots[i]
	s.accessedAt = c.now()
	c.stats.Hits++
	return s.value, true
}

// Contains checks if a key is in the cache, without updating the
// recent-ness, access stamp, or counters.
func (c *LRU[K, V]) Contains(key K) (ok bool) {
	_, ok = c.items[key]
	return ok
}

// Peek returns the key's value without updating the recent-ness,
// access stamp, or counters.
func (c *LRU[K, V]) Peek(key K) (value V, ok bool) {
	if i, ok := c.items[key]; ok {
		return c.slots[i].value, true
	}
	return value, false
}

// Remove removes the provided key from the cache, returning if the
// key was contained.
func (c *LRU[K, V]) Remove(key K) (present bool) {
	if i, ok := c.items[key]; ok {
		c.removeElement(i)
		return true
	}
	return false
}

// PurgeBefore removes every entry whose last access stamp is at or
// before cutoff, returning the number removed. The boundary is
// inclusive: an entry stamped exactly at the cutoff millisecond goes
// too, so entries touched within the same millisecond purge together.
// Each entry is judged on its own stamp, never on list position; after
// interleaved Get and PurgeBefore calls under a coarse clock the
// recency order and the stamp order need not agree.
func (c *LRU[K, V]) PurgeBefore(cutoff time.Time) (removed int) {
	cut := cutoff.UnixMilli()
	for i := c.head; i != nilHandle; {
		next := c.slots[i].next
		if c.slots[i].accessedAt <= cut {
			c.removeElement(i)
			removed++
		}
		i = next
	}
	return removed
}

// Flush discards every cached entry. The hit and miss counters keep
// their values; only contents reset.
func (c *LRU[K, V]) Flush() {
	if c.onEvict != nil {
		for i := c.head; i != nilHandle; i = c.slots[i].next {
			c.onEvict(c.slots[i].key, c.slots[i].value)
		}
	}
	c.slots = c.slots[:0]
	c.free = c.free[:0]
	c.items = make(map[K]int, c.capacity)
	c.head, c.tail = nilHandle, nilHandle
}

// Entries returns a copy of the cache contents ordered most recently
// used first. The slice shares nothing with the cache.
func (c *LRU[K, V]) Entries() []Entry[K, V] {
	out := make([]Entry[K, V], 0, len(c.items))
	for i := c.head; i != nilHandle; i = c.slots[i].next {
		out = append(out, Entry[K, V]{Key: c.slots[i].key, Value: c.slots[i].value})
	}
	return out
}

// Len returns the number of items in the cache.
func (c *LRU[K, V]) Len() int {
	return len(c.items)
}

// Cap returns the capacity fixed at construction.
func (c *LRU[K, V]) Cap() int {
	return c.capacity
}

// Stats returns a snapshot of the lookup counters.
func (c *LRU[K, V]) Stats() Stats {
	return c.stats
}

// removeOldest removes the least recently used entry, the tail of the
// recency list.
func (c *LRU[K, V]) removeOldest() {
	if c.tail != nilHandle {
		c.removeElement(c.tail)
	}
}

// removeElement removes the entry at handle i from both the index and
// the recency list, recycling its slot.
func (c *LRU[K, V]) removeElement(i int) {
	ent := c.slots[i]
	c.detach(i)
	delete(c.items, ent.key)
	c.slots[i] = slot[K, V]{}
	c.free = append(c.free, i)
	if c.onEvict != nil {
		c.onEvict(ent.key, ent.value)
	}
}

// alloc returns a handle to an unused slot, recycling freed handles
// before growing the arena. The arena never exceeds capacity slots.
func (c *LRU[K, V]) alloc() int {
	if n := len(c.free); n > 0 {
		i := c.free[n-1]
		c.free = c.free[:n-1]
		return i
	}
	c.slots = append(c.slots, slot[K, V]{})
	return len(c.slots) - 1
}

// detach unlinks the slot at handle i from the recency list.
func (c *LRU[K, V]) detach(i int) {
	s := &c.slots[i]
	if s.prev != nilHandle {
		c.slots[s.prev].next = s.next
	} else {
		c.head = s.next
	}
	if s.next != nilHandle {
		c.slots[s.next].prev = s.prev
	} else {
		c.tail = s.prev
	}
}

// attachFront links the slot at handle i in as the head of the recency
// list.
func (c *LRU[K, V]) attachFront(i int) {
	s := &c.slots[i]
	s.prev = nilHandle
	s.next = c.head
	if c.head != nilHandle {
		c.slots[c.head].prev = i
	}
	c.head = i
	if c.tail == nilHandle {
		c.tail = i
	}
}
