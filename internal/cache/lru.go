// internal/cache/lru.go
//
// Bounded LRU used by the view engine to hold parsed *template.Template
// sets.  Safe for concurrent use.
//
// Context
// -------
// The store is hashicorp/golang-lru.  This wrapper fixes the capacity rule
// (panic on < 1, so a bad constant fails at boot) and counts evictions,
// which tells an operator whether the capacity is too small for the number
// of pages served.
package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRU is a least-recently-used cache.
type LRU[K comparable, V any] struct {
	c       *lru.Cache[K, V]
	evicted atomic.Int64
}

// New returns an LRU with the given capacity.  Panics on cap < 1.
func New[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	c, err := lru.New[K, V](capacity)
	if err != nil {
		panic("cache: " + err.Error())
	}
	return &LRU[K, V]{c: c}
}

// Get retrieves a value and marks it most recently used.
func (l *LRU[K, V]) Get(key K) (V, bool) { return l.c.Get(key) }

// Add inserts or updates a value, evicting the oldest entry when full.
func (l *LRU[K, V]) Add(key K, val V) {
	if l.c.Add(key, val) {
		l.evicted.Add(1)
	}
}

// Purge drops every entry.  Purged entries are not counted as evictions.
func (l *LRU[K, V]) Purge() { l.c.Purge() }

// Len reports current size.
func (l *LRU[K, V]) Len() int { return l.c.Len() }

// Evictions reports how many entries capacity pressure has pushed out.
func (l *LRU[K, V]) Evictions() int64 { return l.evicted.Load() }
