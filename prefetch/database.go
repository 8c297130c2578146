// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prefetch

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/trielab/triedb"
	"github.com/trielab/triedb/statetrie"
)

// Trie is the read surface exercised while warming state ahead of execution.
// Prefetching only ever reads, so an interrupted prefetch leaves no state
// behind.
type Trie interface {
	GetAccount(address common.Address) (*statetrie.StateAccount, error)
	GetStorage(addr common.Address, key []byte) ([]byte, error)
	Hash() common.Hash
}

// Database opens tries for prefetching.
type Database interface {
	// OpenTrie opens the main account trie at the given state root.
	OpenTrie(root common.Hash) (Trie, error)

	// OpenStorageTrie opens a storage trie of an account.
	OpenStorageTrie(stateRoot common.Hash, owner common.Hash, root common.Hash) (Trie, error)

	// CopyTrie returns an independent copy of the given trie.
	CopyTrie(Trie) Trie
}

var _ Database = (*stateDatabase)(nil)

// stateDatabase adapts the trie node store into the Database interface above.
type stateDatabase struct {
	db *triedb.Database
}

// NewStateDatabase returns a Database opening secure tries backed by db.
func NewStateDatabase(db *triedb.Database) Database {
	return &stateDatabase{db: db}
}

func (sdb *stateDatabase) OpenTrie(root common.Hash) (Trie, error) {
	return statetrie.NewStateTrie(statetrie.StateTrieID(root), sdb.db)
}

func (sdb *stateDatabase) OpenStorageTrie(stateRoot common.Hash, owner common.Hash, root common.Hash) (Trie, error) {
	return statetrie.NewStateTrie(statetrie.StorageTrieID(stateRoot, owner, root), sdb.db)
}

func (sdb *stateDatabase) CopyTrie(t Trie) Trie {
	if st, ok := t.(*statetrie.StateTrie); ok {
		return st.Copy()
	}
	panic("unknown trie type for copy")
}
