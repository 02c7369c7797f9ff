package utils

import (
	"github.com/floatdrop/lru"
	"sync"
	"sync/atomic"
)

// LRUCache is a size bounded least recently used cache, safe for concurrent use
type LRUCache[K comparable, T any] struct {
	lock         sync.Mutex
	values       *lru.LRU[K, T]
	hits, misses atomic.Uint64
	size         int
}

func NewLRUCache[K comparable, T any](size int) *LRUCache[K, T] {
	c := &LRUCache[K, T]{
		size: size,
	}
	c.Clear()
	return c
}

func (c *LRUCache[K, T]) Get(key K) (value T, ok bool) {
	c.lock.Lock()
	v := c.values.Get(key)
	if v != nil {
		value = *v
	}
	c.lock.Unlock()

	if v != nil {
		c.hits.Add(1)
		return value, true
	} else {
		c.misses.Add(1)
		return value, false
	}
}

func (c *LRUCache[K, T]) Set(key K, value T) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.values.Set(key, value)
}

func (c *LRUCache[K, T]) Delete(key K) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.values.Remove(key)
}

func (c *LRUCache[K, T]) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.values = lru.New[K, T](c.size)
}

func (c *LRUCache[K, T]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.values.Len()
}

func (c *LRUCache[K, T]) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
