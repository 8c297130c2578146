// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cache defines the caching interface shared by the node store and
// the database wrappers.
package cache

// Cacher acts as a best effort key value store.
type Cacher[K comparable, V any] interface {
	// Put inserts an element into the cache. If space is required, elements will
	// be evicted.
	Put(key K, value V)

	// Get returns the entry in the cache with the key specified, if no value
	// exists, false is returned.
	Get(key K) (V, bool)

	// Evict removes the specified entry from the cache
	Evict(key K)

	// Flush removes all entries from the cache
	Flush()
}
