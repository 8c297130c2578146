// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lru

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/trielab/triedb/cache"
)

func TestCache(t *testing.T) {
	for _, test := range cache.CacherTests {
		c := NewCache[common.Hash, int64](test.Size)
		test.Func(t, c)
	}
}

func TestCacheOnEvict(t *testing.T) {
	require := require.New(t)

	evicted := make(map[common.Hash]int64)
	c := NewCacheWithOnEvict(1, func(k common.Hash, v int64) {
		evicted[k] = v
	})

	id1 := common.Hash{1}
	id2 := common.Hash{2}

	c.Put(id1, 1)
	c.Put(id2, 2)

	require.Equal(map[common.Hash]int64{id1: 1}, evicted)

	c.Flush()
	require.Equal(map[common.Hash]int64{id1: 1, id2: 2}, evicted)
	require.Zero(c.Len())
}

func TestSizedCache(t *testing.T) {
	for _, test := range cache.CacherTests {
		c := NewSizedCache(test.Size*cache.TestIntSize, func(common.Hash, int64) int {
			return cache.TestIntSize
		})
		test.Func(t, c)
	}
}

func TestSizedCacheOversizedEntry(t *testing.T) {
	require := require.New(t)

	c := NewSizedCache(8, func(_ common.Hash, v int64) int {
		return int(v)
	})

	c.Put(common.Hash{1}, 4)
	c.Put(common.Hash{2}, 4)
	require.Equal(2, c.Len())

	// An entry larger than the cache flushes it entirely.
	c.Put(common.Hash{3}, 100)
	require.Zero(c.Len())
}
