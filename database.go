// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package triedb provides the backing store for tries: a content-addressed
// node database layered over any key-value engine, with an LRU cache for
// clean nodes and an optional preimage store for reverse key lookups.
//
// Trie nodes are keyed by their keccak256 hash. Committing a trie produces a
// set of new nodes (see the trienode package) which Update persists in one
// batch. Nodes made unreachable by an update are retained, keeping prior
// roots readable.
package triedb

import (
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/trielab/triedb/cache"
	"github.com/trielab/triedb/cache/lru"
	"github.com/trielab/triedb/cache/metercacher"
	"github.com/trielab/triedb/database"
	"github.com/trielab/triedb/database/prefixdb"
	"github.com/trielab/triedb/statetrie"
	"github.com/trielab/triedb/trienode"
	"github.com/trielab/triedb/utils/logging"
	"github.com/trielab/triedb/utils/units"
)

// preimagePrefix keys the preimage store apart from trie nodes in the shared
// key-value engine.
var preimagePrefix = []byte("secure-key-")

var _ statetrie.Database = (*Database)(nil)

// Config defines all necessary options for database.
type Config struct {
	// CleanCacheSize is the maximum memory, in bytes, to hold clean trie
	// nodes in. A size of 0 disables the cache.
	CleanCacheSize int

	// Preimages records the preimage of every hashed trie key when enabled.
	Preimages bool
}

// DefaultConfig caches 16 MiB of clean nodes and skips preimage recording.
var DefaultConfig = &Config{
	CleanCacheSize: 16 * units.MiB,
}

// Database is the backing store trie instances read missing nodes from and
// commit node sets into. It is safe for concurrent use.
type Database struct {
	diskdb    database.Database
	cleans    cache.Cacher[common.Hash, []byte]
	preimages *preimageStore
	log       logging.Logger
	metrics   metrics

	lock   sync.RWMutex
	closed bool
}

// New attaches a trie node store to the provided key-value database.
func New(
	diskdb database.Database,
	config *Config,
	log logging.Logger,
	namespace string,
	reg prometheus.Registerer,
) (*Database, error) {
	if config == nil {
		config = DefaultConfig
	}
	var cleans cache.Cacher[common.Hash, []byte]
	if config.CleanCacheSize > 0 {
		var err error
		cleans, err = metercacher.New(
			fmt.Sprintf("%s_clean_cache", namespace),
			reg,
			lru.NewSizedCache[common.Hash, []byte](
				config.CleanCacheSize,
				func(_ common.Hash, blob []byte) int {
					return common.HashLength + len(blob)
				},
			),
		)
		if err != nil {
			return nil, err
		}
	}
	db := &Database{
		diskdb: diskdb,
		cleans: cleans,
		log:    log,
	}
	if config.Preimages {
		db.preimages = newPreimageStore(prefixdb.New(preimagePrefix, diskdb))
	}
	if err := db.metrics.Initialize(namespace, reg); err != nil {
		return nil, err
	}
	log.Info("created trie database",
		zap.Int("cleanCacheSize", config.CleanCacheSize),
		zap.Bool("preimages", config.Preimages),
	)
	return db, nil
}

// Reader returns a node reader associated with the specific state. An error
// will be returned if the referenced state is not available.
func (db *Database) Reader(stateRoot common.Hash) (statetrie.Reader, error) {
	blob, err := db.Node(stateRoot)
	if err == database.ErrNotFound {
		return nil, fmt.Errorf("state %#x is not available", stateRoot)
	}
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		return nil, fmt.Errorf("state %#x is not available", stateRoot)
	}
	return &reader{db: db}, nil
}

// reader is a state reader of Database which implements the Reader interface.
type reader struct {
	db *Database
}

// Node retrieves the trie node with the given node hash. No error will be
// returned if the node is not found.
func (r *reader) Node(_ common.Hash, _ []byte, hash common.Hash) ([]byte, error) {
	blob, err := r.db.Node(hash)
	if err == database.ErrNotFound {
		return nil, nil
	}
	return blob, err
}

// Node retrieves the rlp-encoded node blob with the given node hash.
// database.ErrNotFound is returned if the node is not present.
func (db *Database) Node(hash common.Hash) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return nil, database.ErrClosed
	}
	if db.cleans != nil {
		if blob, ok := db.cleans.Get(hash); ok {
			return blob, nil
		}
	}
	blob, err := db.diskdb.Get(hash[:])
	if err != nil {
		return nil, err
	}
	if db.cleans != nil {
		db.cleans.Put(hash, blob)
	}
	return blob, nil
}

// Has reports whether the node with the given hash is present.
func (db *Database) Has(hash common.Hash) (bool, error) {
	switch _, err := db.Node(hash); err {
	case nil:
		return true, nil
	case database.ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}

// Put inserts a raw node blob keyed by its hash. It is intended for tooling
// and state import; normal persistence goes through Update.
func (db *Database) Put(hash common.Hash, blob []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.closed {
		return database.ErrClosed
	}
	if db.cleans != nil {
		db.cleans.Put(hash, blob)
	}
	if err := db.diskdb.Put(hash[:], blob); err != nil {
		if db.cleans != nil {
			db.cleans.Evict(hash)
		}
		return err
	}
	db.metrics.nodeWrites.Inc()
	db.metrics.nodeWriteBytes.Add(float64(len(blob)))
	return nil
}

// Remove deletes the node with the given hash. Removing a node that is still
// referenced by a live root makes that root unreadable; callers own that
// bookkeeping.
func (db *Database) Remove(hash common.Hash) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.closed {
		return database.ErrClosed
	}
	if db.cleans != nil {
		db.cleans.Evict(hash)
	}
	return db.diskdb.Delete(hash[:])
}

// Update performs a state transition by committing dirty nodes contained in
// the given set in order to update state from the specified parent to the
// specified root.
//
// Deleted nodes are retained on disk so that previously committed roots stay
// readable; only insertions and updates are applied.
func (db *Database) Update(root common.Hash, parent common.Hash, nodes *trienode.MergedNodeSet) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.closed {
		return database.ErrClosed
	}
	start := time.Now()
	defer func() {
		db.metrics.updateDuration.Observe(float64(time.Since(start)))
	}()

	batch := db.diskdb.NewBatch()
	var (
		inserted int
		bytes    int
	)
	for owner, subset := range nodes.Sets {
		subset.ForEachWithOrder(func(path string, n *trienode.Node) {
			if n.IsDeleted() {
				return
			}
			if db.cleans != nil {
				db.cleans.Put(n.Hash, n.Blob)
			}
			_ = batch.Put(n.Hash[:], n.Blob)
			inserted++
			bytes += len(n.Blob)
		})
		db.log.Verbo("collected trie nodes",
			zap.Stringer("owner", owner),
			zap.Int("count", len(subset.Nodes)),
		)
	}
	if err := batch.Write(); err != nil {
		// The cache may be ahead of disk now, drop it.
		if db.cleans != nil {
			db.cleans.Flush()
		}
		return err
	}
	db.metrics.nodeWrites.Add(float64(inserted))
	db.metrics.nodeWriteBytes.Add(float64(bytes))

	if db.preimages != nil {
		if err := db.preimages.commit(false); err != nil {
			return err
		}
	}
	db.log.Debug("persisted trie nodes",
		zap.Stringer("root", root),
		zap.Stringer("parent", parent),
		zap.Int("nodes", inserted),
		zap.Int("bytes", bytes),
	)
	return nil
}

// Preimage retrieves a cached trie node pre-image from preimage store.
func (db *Database) Preimage(hash common.Hash) []byte {
	if db.preimages == nil {
		return nil
	}
	return db.preimages.preimage(hash)
}

// InsertPreimage writes pre-images of trie node to the preimage store.
func (db *Database) InsertPreimage(preimages map[common.Hash][]byte) {
	if db.preimages == nil {
		return
	}
	db.preimages.insertPreimage(preimages)
}

// Close flushes any pending preimages and invalidates the clean cache. The
// underlying key-value database is owned by the caller and left open.
func (db *Database) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.closed {
		return database.ErrClosed
	}
	db.closed = true
	if db.cleans != nil {
		db.cleans.Flush()
	}
	if db.preimages != nil {
		return db.preimages.commit(true)
	}
	return nil
}
