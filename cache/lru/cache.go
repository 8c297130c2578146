// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package lru provides least-recently-used implementations of cache.Cacher.
package lru

import (
	"sync"

	"github.com/trielab/triedb/cache"
	"github.com/trielab/triedb/utils"
	"github.com/trielab/triedb/utils/linked"
)

var _ cache.Cacher[struct{}, struct{}] = (*Cache[struct{}, struct{}])(nil)

// Cache bounds the number of entries it holds. Inserting into a full cache
// first drops the least recently used entry.
type Cache[K comparable, V any] struct {
	lock     sync.Mutex
	elements *linked.Hashmap[K, V]
	size     int

	// onEvict is called with each entry as it leaves the cache.
	onEvict func(K, V)
}

// NewCache creates a cache holding at most size entries.
func NewCache[K comparable, V any](size int) *Cache[K, V] {
	return NewCacheWithOnEvict(size, func(K, V) {})
}

// NewCacheWithOnEvict creates a cache holding at most size entries, invoking
// onEvict for every entry removed by eviction, Evict or Flush.
func NewCacheWithOnEvict[K comparable, V any](size int, onEvict func(K, V)) *Cache[K, V] {
	return &Cache[K, V]{
		elements: linked.NewHashmap[K, V](),
		size:     max(size, 1),
		onEvict:  onEvict,
	}
}

func (c *Cache[K, V]) Put(key K, value V) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.elements.Len() == c.size {
		if oldestKey, oldestValue, ok := c.elements.Oldest(); ok {
			c.evict(oldestKey, oldestValue)
		}
	}
	c.elements.Put(key, value)
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	val, ok := c.elements.Get(key)
	if !ok {
		return utils.Zero[V](), false
	}
	c.elements.Put(key, val) // Mark [key] as MRU.
	return val, true
}

func (c *Cache[K, _]) Evict(key K) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if value, ok := c.elements.Get(key); ok {
		c.evict(key, value)
	}
}

func (c *Cache[K, V]) evict(key K, value V) {
	c.onEvict(key, value)
	c.elements.Delete(key)
}

func (c *Cache[_, _]) Flush() {
	c.lock.Lock()
	defer c.lock.Unlock()

	for iter := c.elements.NewIterator(); iter.Next(); {
		c.evict(iter.Key(), iter.Value())
	}
}

func (c *Cache[_, _]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.elements.Len()
}
