// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metercacher

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/trielab/triedb/cache"
	"github.com/trielab/triedb/cache/lru"
)

func TestInterface(t *testing.T) {
	scenarios := []struct {
		name  string
		setup func(size int) cache.Cacher[common.Hash, int64]
	}{
		{
			name: "cache LRU",
			setup: func(size int) cache.Cacher[common.Hash, int64] {
				return lru.NewCache[common.Hash, int64](size)
			},
		},
		{
			name: "sized cache LRU",
			setup: func(size int) cache.Cacher[common.Hash, int64] {
				return lru.NewSizedCache(size*cache.TestIntSize, func(common.Hash, int64) int {
					return cache.TestIntSize
				})
			},
		},
	}
	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			for _, test := range cache.CacherTests {
				baseCache := scenario.setup(test.Size)
				c, err := New("", prometheus.NewRegistry(), baseCache)
				require.NoError(t, err)
				test.Func(t, c)
			}
		})
	}
}
