// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metercacher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trielab/triedb/cache"
)

var _ cache.Cacher[struct{}, struct{}] = (*Cache[struct{}, struct{}])(nil)

// Cache wraps a Cacher and records latency and hit/miss metrics.
type Cache[K comparable, V any] struct {
	metrics
	cache.Cacher[K, V]
}

func New[K comparable, V any](
	namespace string,
	registerer prometheus.Registerer,
	cache cache.Cacher[K, V],
) (*Cache[K, V], error) {
	meterCache := &Cache[K, V]{Cacher: cache}
	return meterCache, meterCache.metrics.Initialize(namespace, registerer)
}

func (c *Cache[K, V]) Put(key K, value V) {
	start := time.Now()
	c.Cacher.Put(key, value)
	c.put.Observe(float64(time.Since(start)))
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	start := time.Now()
	value, has := c.Cacher.Get(key)
	c.get.Observe(float64(time.Since(start)))

	if has {
		c.hit.Inc()
	} else {
		c.miss.Inc()
	}
	return value, has
}

func (c *Cache[K, _]) Evict(key K) {
	start := time.Now()
	c.Cacher.Evict(key)
	c.evict.Observe(float64(time.Since(start)))
}

func (c *Cache[_, _]) Flush() {
	start := time.Now()
	c.Cacher.Flush()
	c.flush.Observe(float64(time.Since(start)))
}
