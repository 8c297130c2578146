// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package triedb

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/trielab/triedb/database"
	"github.com/trielab/triedb/database/memdb"
	"github.com/trielab/triedb/statetrie"
	"github.com/trielab/triedb/trienode"
	"github.com/trielab/triedb/utils/logging"
	"github.com/trielab/triedb/utils/units"
)

func newTestDatabase(t *testing.T, config *Config) *Database {
	db, err := New(memdb.New(), config, logging.NoLog{}, "", prometheus.NewRegistry())
	require.NoError(t, err)
	return db
}

func TestCommitAndReopen(t *testing.T) {
	require := require.New(t)

	db := newTestDatabase(t, &Config{CleanCacheSize: units.MiB, Preimages: true})

	trie := statetrie.NewEmpty(db)
	vals := map[string]string{
		"do":     "verb",
		"ether":  "wookiedoo",
		"horse":  "stallion",
		"shaman": "horse",
		"doge":   "coin",
		"dog":    "puppy",
	}
	for k, v := range vals {
		require.NoError(trie.Update([]byte(k), []byte(v)))
	}
	root, nodes, err := trie.Commit(false)
	require.NoError(err)
	require.NoError(db.Update(root, statetrie.EmptyRootHash, trienode.NewWithNodeSet(nodes)))

	reopened, err := statetrie.New(statetrie.TrieID(root), db)
	require.NoError(err)
	for k, v := range vals {
		got, err := reopened.Get([]byte(k))
		require.NoError(err)
		require.Equal([]byte(v), got)
	}
	require.Equal(root, reopened.Hash())
}

func TestStateTrieOverDatabase(t *testing.T) {
	require := require.New(t)

	db := newTestDatabase(t, &Config{CleanCacheSize: units.MiB, Preimages: true})
	addr := common.HexToAddress("0x1000000000000000000000000000000000000001")
	acct := &statetrie.StateAccount{
		Nonce:    1,
		Balance:  big.NewInt(1000),
		Root:     statetrie.EmptyRootHash,
		CodeHash: statetrie.EmptyCodeHash.Bytes(),
	}

	trie, err := statetrie.NewStateTrie(statetrie.TrieID(statetrie.EmptyRootHash), db)
	require.NoError(err)
	require.NoError(trie.UpdateAccount(addr, acct))
	root, nodes, err := trie.Commit(true)
	require.NoError(err)
	require.NoError(db.Update(root, statetrie.EmptyRootHash, trienode.NewWithNodeSet(nodes)))

	reopened, err := statetrie.NewStateTrie(statetrie.TrieID(root), db)
	require.NoError(err)
	got, err := reopened.GetAccount(addr)
	require.NoError(err)
	require.Equal(acct.Nonce, got.Nonce)
	require.Zero(acct.Balance.Cmp(got.Balance))
}

func TestReaderMissingState(t *testing.T) {
	require := require.New(t)

	db := newTestDatabase(t, nil)
	_, err := db.Reader(common.HexToHash("0xdeadbeef"))
	require.Error(err)
}

func TestNodeStoreCapabilities(t *testing.T) {
	require := require.New(t)

	db := newTestDatabase(t, nil)
	hash := common.HexToHash("0x0102")
	blob := []byte("node blob")

	has, err := db.Has(hash)
	require.NoError(err)
	require.False(has)
	_, err = db.Node(hash)
	require.Equal(database.ErrNotFound, err)

	require.NoError(db.Put(hash, blob))
	has, err = db.Has(hash)
	require.NoError(err)
	require.True(has)
	got, err := db.Node(hash)
	require.NoError(err)
	require.Equal(blob, got)

	require.NoError(db.Remove(hash))
	has, err = db.Has(hash)
	require.NoError(err)
	require.False(has)
}

func TestPreimages(t *testing.T) {
	require := require.New(t)

	db := newTestDatabase(t, &Config{Preimages: true})
	hash := common.HexToHash("0xabcd")
	db.InsertPreimage(map[common.Hash][]byte{hash: []byte("preimage")})
	require.Equal([]byte("preimage"), db.Preimage(hash))

	// Disabled preimage recording is a no-op.
	disabled := newTestDatabase(t, &Config{})
	disabled.InsertPreimage(map[common.Hash][]byte{hash: []byte("preimage")})
	require.Nil(disabled.Preimage(hash))
}

func TestClosedDatabase(t *testing.T) {
	require := require.New(t)

	db := newTestDatabase(t, nil)
	require.NoError(db.Close())
	require.Equal(database.ErrClosed, db.Close())

	_, err := db.Node(common.Hash{})
	require.Equal(database.ErrClosed, err)
	require.Equal(database.ErrClosed, db.Put(common.Hash{}, nil))
	require.Equal(database.ErrClosed, db.Remove(common.Hash{}))
	require.Equal(database.ErrClosed, db.Update(common.Hash{}, common.Hash{}, trienode.NewMergedNodeSet()))
}
