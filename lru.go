package lru

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"

	"github.com/bpowers/sized-lru/simplelru"
)

// ErrInvalidArgument is the base error for every argument rejection;
// the specific conditions below all wrap it, so callers can match
// either the exact condition or the whole class with errors.Is.
var ErrInvalidArgument = errors.New("lru: invalid argument")

var (
	// ErrInvalidCapacity is returned by the constructors when the
	// requested capacity is less than one.
	ErrInvalidCapacity = fmt.Errorf("%w: capacity must be at least 1", ErrInvalidArgument)

	// ErrNilKey is returned by Put and Get for a nil key.
	ErrNilKey = fmt.Errorf("%w: key cannot be nil", ErrInvalidArgument)

	// ErrNilValue is returned by Put for a nil value.
	ErrNilValue = fmt.Errorf("%w: value cannot be nil", ErrInvalidArgument)

	// ErrZeroCutoff is returned by Purge for a zero cutoff time.
	ErrZeroCutoff = fmt.Errorf("%w: cutoff time cannot be zero", ErrInvalidArgument)
)

// Cache is a thread-safe fixed size LRU cache. One lock guards the
// whole engine (index, recency order, and counters) as a unit; every
// mutating operation, Get included, takes it exclusively, while pure
// reads share it. Argument validation always happens before the lock
// is taken.
type Cache[K comparable, V any] struct {
	lru  simplelru.LRUCache[K, V]
	lock sync.RWMutex
}

// New creates an LRU cache of the given capacity.
func New[K comparable, V any](capacity int) (*Cache[K, V], error) {
	return NewWithOpts[K, V](capacity, nil, nil)
}

// NewWithEvict constructs a fixed size cache with the given eviction
// callback, invoked whenever an entry leaves the cache.
func NewWithEvict[K comparable, V any](capacity int, onEvicted func(key K, value V)) (*Cache[K, V], error) {
	return NewWithOpts[K, V](capacity, onEvicted, nil)
}

// NewWithOpts constructs a fixed size cache with an eviction callback
// and a caller-supplied clock. A nil clock means the wall clock; tests
// pass a clock.TestClock so access stamps and purge cutoffs can be
// driven deterministically.
func NewWithOpts[K comparable, V any](capacity int, onEvicted func(key K, value V), clk clock.Clock) (*Cache[K, V], error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	lru, err := simplelru.NewLRU[K, V](capacity, simplelru.EvictCallback[K, V](onEvicted), clk)
	if err != nil {
		return nil, err
	}
	c := &Cache[K, V]{
		lru: lru,
	}
	return c, nil
}

// Put stores value under key, displacing the least recently used entry
// if a new key would exceed capacity. An already-present key is
// replaced and treated as freshly inserted. Returns true if an
// eviction occurred.
func (c *Cache[K, V]) Put(key K, value V) (evicted bool, err error) {
	if isNil(key) {
		return false, ErrNilKey
	}
	if isNil(value) {
		return false, ErrNilValue
	}
	c.lock.Lock()
	evicted = c.lru.Put(key, value)
	c.lock.Unlock()
	return evicted, nil
}

// Get looks up a key's value from the cache, marking the entry most
// recently used on a hit. A missing key is not an error; ok reports
// whether the value was found.
func (c *Cache[K, V]) Get(key K) (value V, ok bool, err error) {
	if isNil(key) {
		return value, false, ErrNilKey
	}
	c.lock.Lock()
	value, ok = c.lru.Get(key)
	c.lock.Unlock()
	return value, ok, nil
}

// Contains checks if a key is in the cache, without updating the
// recent-ness or the lookup counters.
func (c *Cache[K, V]) Contains(key K) bool {
	c.lock.RLock()
	containKey := c.lru.Contains(key)
	c.lock.RUnlock()
	return containKey
}

// Peek returns the key value (or undefined if not found) without
// updating the "recently used"-ness of the key.
func (c *Cache[K, V]) Peek(key K) (value V, ok bool) {
	c.lock.RLock()
	value, ok = c.lru.Peek(key)
	c.lock.RUnlock()
	return value, ok
}

// Remove removes the provided key from the cache.
func (c *Cache[K, V]) Remove(key K) (present bool) {
	c.lock.Lock()
	present = c.lru.Remove(key)
	c.lock.Unlock()
	return
}

// Purge removes every entry last touched at or before cutoff,
// returning the number removed. The cutoff is required; a zero time is
// rejected rather than silently purging nothing. Scheduling periodic
// purges is the caller's job; the cache never purges on its own.
func (c *Cache[K, V]) Purge(cutoff time.Time) (removed int, err error) {
	if cutoff.IsZero() {
		return 0, ErrZeroCutoff
	}
	c.lock.Lock()
	removed = c.lru.PurgeBefore(cutoff)
	c.lock.Unlock()
	return removed, nil
}

// Flush is used to completely clear the cache. The hit and miss
// counters are left untouched.
func (c *Cache[K, V]) Flush() {
	c.lock.Lock()
	c.lru.Flush()
	c.lock.Unlock()
}

// Entries returns a point-in-time copy of the cache contents, most
// recently used first. Mutating the result does not affect the cache.
func (c *Cache[K, V]) Entries() []simplelru.Entry[K, V] {
	c.lock.RLock()
	entries := c.lru.Entries()
	c.lock.RUnlock()
	return entries
}

// Len returns the number of items in the cache.
func (c *Cache[K, V]) Len() int {
	c.lock.RLock()
	length := c.lru.Len()
	c.lock.RUnlock()
	return length
}

// Cap returns the capacity fixed at construction.
func (c *Cache[K, V]) Cap() int {
	c.lock.RLock()
	capacity := c.lru.Cap()
	c.lock.RUnlock()
	return capacity
}

// Stats returns a snapshot of the hit/miss counters.
func (c *Cache[K, V]) Stats() simplelru.Stats {
	c.lock.RLock()
	stats := c.lru.Stats()
	c.lock.RUnlock()
	return stats
}

// isNil reports whether v is an untyped nil or a nil pointer,
// interface, map, slice, func, or channel. A comparable key type or an
// arbitrary value type can smuggle a typed nil through a non-nil
// interface, so a plain == nil check is not enough.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
