// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package triedb

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trielab/triedb/database"
	"github.com/trielab/triedb/utils/units"
)

// preimagesFlushLimit is the in-memory size of accumulated preimages above
// which they are flushed to disk.
const preimagesFlushLimit = 4 * units.MiB

// preimageStore is the store for caching preimages of node key.
type preimageStore struct {
	lock          sync.RWMutex
	disk          database.Database
	preimages     map[common.Hash][]byte // Preimages of nodes from the secure trie
	preimagesSize int                    // Storage size of the preimages cache
}

// newPreimageStore initializes the store for caching preimages.
func newPreimageStore(disk database.Database) *preimageStore {
	return &preimageStore{
		disk:      disk,
		preimages: make(map[common.Hash][]byte),
	}
}

// insertPreimage writes pre-images of trie node to the preimage store.
func (store *preimageStore) insertPreimage(preimages map[common.Hash][]byte) {
	store.lock.Lock()
	defer store.lock.Unlock()

	for hash, preimage := range preimages {
		if _, ok := store.preimages[hash]; ok {
			continue
		}
		store.preimages[hash] = preimage
		store.preimagesSize += common.HashLength + len(preimage)
	}
}

// preimage retrieves a cached trie node pre-image from store.
func (store *preimageStore) preimage(hash common.Hash) []byte {
	store.lock.RLock()
	preimage := store.preimages[hash]
	store.lock.RUnlock()

	if preimage != nil {
		return preimage
	}
	preimage, err := store.disk.Get(hash.Bytes())
	if err != nil {
		return nil
	}
	return preimage
}

// commit flushes the cached preimages into the disk.
func (store *preimageStore) commit(force bool) error {
	store.lock.Lock()
	defer store.lock.Unlock()

	if store.preimagesSize <= preimagesFlushLimit && !force {
		return nil
	}
	batch := store.disk.NewBatch()
	for hash, preimage := range store.preimages {
		if err := batch.Put(hash.Bytes(), preimage); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	store.preimages, store.preimagesSize = make(map[common.Hash][]byte), 0
	return nil
}
