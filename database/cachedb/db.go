// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cachedb layers an LRU read cache over any database. Both present
// values and misses are cached, so repeated reads of absent keys avoid the
// backing store entirely. The cache is updated before the backing store on
// every mutation, keeping reads served from the cache consistent with the
// most recent write.
package cachedb

import (
	"context"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trielab/triedb/cache"
	"github.com/trielab/triedb/cache/lru"
	"github.com/trielab/triedb/cache/metercacher"
	"github.com/trielab/triedb/database"
	"github.com/trielab/triedb/utils/maybe"
)

var (
	_ database.Database = (*Database)(nil)
	_ database.Batch    = (*batch)(nil)
)

// Database caches reads from, and writes through to, an inner database.
//
// A cached maybe.Nothing records that the key is known to be absent.
type Database struct {
	// lock keeps cache updates atomic with respect to the inner database
	// mutations they mirror.
	lock   sync.RWMutex
	cache  cache.Cacher[string, maybe.Maybe[[]byte]]
	db     database.Database
	closed bool
}

// New returns a database caching up to [cacheSize] entries of [db].
func New(cacheSize int, db database.Database) *Database {
	return &Database{
		cache: lru.NewCache[string, maybe.Maybe[[]byte]](cacheSize),
		db:    db,
	}
}

// NewMetered returns a caching database whose cache reports hit/miss metrics
// to [reg] under [namespace].
func NewMetered(cacheSize int, namespace string, reg prometheus.Registerer, db database.Database) (*Database, error) {
	meteredCache, err := metercacher.New(
		namespace,
		reg,
		lru.NewCache[string, maybe.Maybe[[]byte]](cacheSize),
	)
	if err != nil {
		return nil, err
	}
	return &Database{
		cache: meteredCache,
		db:    db,
	}, nil
}

func (db *Database) Has(key []byte) (bool, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return false, database.ErrClosed
	}
	if entry, ok := db.cache.Get(string(key)); ok {
		return entry.HasValue(), nil
	}

	has, err := db.db.Has(key)
	if err != nil {
		return false, err
	}
	if !has {
		db.cache.Put(string(key), maybe.Nothing[[]byte]())
	}
	return has, nil
}

func (db *Database) Get(key []byte) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return nil, database.ErrClosed
	}
	if entry, ok := db.cache.Get(string(key)); ok {
		if entry.IsNothing() {
			return nil, database.ErrNotFound
		}
		return slices.Clone(entry.Value()), nil
	}

	value, err := db.db.Get(key)
	switch err {
	case nil:
		db.cache.Put(string(key), maybe.Some(value))
		return slices.Clone(value), nil
	case database.ErrNotFound:
		db.cache.Put(string(key), maybe.Nothing[[]byte]())
		return nil, database.ErrNotFound
	default:
		return nil, err
	}
}

func (db *Database) Put(key []byte, value []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.closed {
		return database.ErrClosed
	}

	db.cache.Put(string(key), maybe.Some(slices.Clone(value)))
	if err := db.db.Put(key, value); err != nil {
		// The write may or may not have landed. Drop the entry so later reads
		// consult the backing store.
		db.cache.Evict(string(key))
		return err
	}
	return nil
}

func (db *Database) Delete(key []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.closed {
		return database.ErrClosed
	}

	db.cache.Put(string(key), maybe.Nothing[[]byte]())
	if err := db.db.Delete(key); err != nil {
		db.cache.Evict(string(key))
		return err
	}
	return nil
}

func (db *Database) NewBatch() database.Batch {
	return &batch{db: db}
}

func (db *Database) NewIterator() database.Iterator {
	return db.NewIteratorWithStartAndPrefix(nil, nil)
}

func (db *Database) NewIteratorWithStart(start []byte) database.Iterator {
	return db.NewIteratorWithStartAndPrefix(start, nil)
}

func (db *Database) NewIteratorWithPrefix(prefix []byte) database.Iterator {
	return db.NewIteratorWithStartAndPrefix(nil, prefix)
}

func (db *Database) NewIteratorWithStartAndPrefix(start, prefix []byte) database.Iterator {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return &database.IteratorError{
			Err: database.ErrClosed,
		}
	}
	return db.db.NewIteratorWithStartAndPrefix(start, prefix)
}

func (db *Database) Compact(start, limit []byte) error {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return database.ErrClosed
	}
	return db.db.Compact(start, limit)
}

func (db *Database) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.closed {
		return database.ErrClosed
	}
	db.closed = true
	db.cache.Flush()
	return db.db.Close()
}

func (db *Database) HealthCheck(ctx context.Context) (interface{}, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return nil, database.ErrClosed
	}
	return db.db.HealthCheck(ctx)
}

type batch struct {
	database.BatchOps

	db *Database
}

func (b *batch) Write() error {
	b.db.lock.Lock()
	defer b.db.lock.Unlock()

	if b.db.closed {
		return database.ErrClosed
	}

	innerBatch := b.db.db.NewBatch()
	if err := b.Replay(innerBatch); err != nil {
		return err
	}

	for _, op := range b.Ops {
		if op.Delete {
			b.db.cache.Put(string(op.Key), maybe.Nothing[[]byte]())
		} else {
			b.db.cache.Put(string(op.Key), maybe.Some(op.Value))
		}
	}

	if err := innerBatch.Write(); err != nil {
		// The cache may now be ahead of the backing store.
		b.db.cache.Flush()
		return err
	}
	return nil
}

func (b *batch) Inner() database.Batch {
	return b
}
