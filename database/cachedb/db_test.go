// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cachedb

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/trielab/triedb/database"
	"github.com/trielab/triedb/database/memdb"
)

func TestInterface(t *testing.T) {
	for name, test := range database.Tests {
		t.Run(name, func(t *testing.T) {
			test(t, New(1024, memdb.New()))
		})
		t.Run(name+"_metered", func(t *testing.T) {
			db, err := NewMetered(1024, "", prometheus.NewRegistry(), memdb.New())
			require.NoError(t, err)
			test(t, db)
		})
	}
}

// A read of a missing key is served from the cache the second time, even
// though the backing store no longer exists to answer it.
func TestNegativeCaching(t *testing.T) {
	require := require.New(t)

	baseDB := memdb.New()
	db := New(16, baseDB)

	key := []byte("missing")
	_, err := db.Get(key)
	require.Equal(database.ErrNotFound, err)

	// Write behind the cache's back. The stale miss is still cached, which is
	// the documented trade-off of negative caching: all writes must go
	// through this layer.
	require.NoError(baseDB.Put(key, []byte("value")))

	_, err = db.Get(key)
	require.Equal(database.ErrNotFound, err)

	// Writing through the cache layer repairs the entry.
	require.NoError(db.Put(key, []byte("value")))
	got, err := db.Get(key)
	require.NoError(err)
	require.Equal([]byte("value"), got)
}

func TestWriteUpdatesCache(t *testing.T) {
	require := require.New(t)

	baseDB := memdb.New()
	db := New(16, baseDB)

	key := []byte("k")
	require.NoError(db.Put(key, []byte("v1")))

	got, err := db.Get(key)
	require.NoError(err)
	require.Equal([]byte("v1"), got)

	require.NoError(db.Delete(key))
	_, err = db.Get(key)
	require.Equal(database.ErrNotFound, err)

	b := db.NewBatch()
	require.NoError(b.Put(key, []byte("v2")))
	require.NoError(b.Write())

	got, err = db.Get(key)
	require.NoError(err)
	require.Equal([]byte("v2"), got)
}
