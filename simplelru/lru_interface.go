// Package simplelru provides a strict LRU implementation built on an
// arena of handle-addressed slots. It is not safe for concurrent use;
// the parent package wraps it with a lock.
package simplelru

import "time"

// LRUCache is the interface for the strict LRU engine.
type LRUCache[K comparable, V any] interface {
	// Puts a value in the cache, returns true if an eviction occurred.
	// An existing key is replaced and re-enters as most recently used.
	Put(key K, value V) bool

	// Returns key's value from the cache and updates the
	// "recently used"-ness and access stamp of the key. #value, isFound
	Get(key K) (value V, ok bool)

	// Checks if a key exists in cache without updating the recent-ness.
	Contains(key K) (ok bool)

	// Returns key's value without updating the "recently used"-ness of
	// the key.
	Peek(key K) (value V, ok bool)

	// Removes a key from the cache.
	Remove(key K) bool

	// Removes every entry last accessed at or before cutoff, returning
	// the number removed.
	PurgeBefore(cutoff time.Time) int

	// Clears all cache entries, leaving the lookup counters intact.
	Flush()

	// Returns the cache contents, most recently used first.
	Entries() []Entry[K, V]

	// Returns the number of items in the cache.
	Len() int

	// Returns the fixed capacity.
	Cap() int

	// Returns a snapshot of the hit/miss counters.
	Stats() Stats
}
