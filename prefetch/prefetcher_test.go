// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prefetch

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/trielab/triedb"
	"github.com/trielab/triedb/database/memdb"
	"github.com/trielab/triedb/statetrie"
	"github.com/trielab/triedb/trienode"
	"github.com/trielab/triedb/utils/logging"
)

// commitTestState builds an account trie with a few accounts and commits it,
// returning the state database and the committed root.
func commitTestState(t *testing.T, addrs []common.Address) (Database, common.Hash) {
	require := require.New(t)

	nodeStore, err := triedb.New(memdb.New(), nil, logging.NoLog{}, "", prometheus.NewRegistry())
	require.NoError(err)

	trie, err := statetrie.NewStateTrie(statetrie.TrieID(statetrie.EmptyRootHash), nodeStore)
	require.NoError(err)
	for i, addr := range addrs {
		acct := &statetrie.StateAccount{
			Nonce:    uint64(i),
			Balance:  big.NewInt(int64(i) * 100),
			Root:     statetrie.EmptyRootHash,
			CodeHash: statetrie.EmptyCodeHash.Bytes(),
		}
		require.NoError(trie.UpdateAccount(addr, acct))
	}
	root, nodes, err := trie.Commit(false)
	require.NoError(err)
	require.NoError(nodeStore.Update(root, statetrie.EmptyRootHash, trienode.NewWithNodeSet(nodes)))

	return NewStateDatabase(nodeStore), root
}

func testAddrs(n int) []common.Address {
	addrs := make([]common.Address, n)
	for i := range addrs {
		addrs[i] = common.BytesToAddress([]byte{byte(i + 1)})
	}
	return addrs
}

func TestPrefetchAccounts(t *testing.T) {
	require := require.New(t)

	addrs := testAddrs(8)
	db, root := commitTestState(t, addrs)

	p, err := New(db, root, logging.NoLog{}, "", prometheus.NewRegistry())
	require.NoError(err)

	keys := make([][]byte, len(addrs))
	for i, addr := range addrs {
		keys[i] = addr.Bytes()
	}
	p.Prefetch(common.Hash{}, root, common.Address{}, keys)

	trie := p.Trie(common.Hash{}, root)
	require.NotNil(trie)
	require.Equal(root, trie.Hash())

	// The returned trie is a copy and usable after Close.
	p.Used(common.Hash{}, root, keys[:4])
	p.Close()

	acct, err := trie.GetAccount(addrs[3])
	require.NoError(err)
	require.NotNil(acct)
	require.Equal(uint64(3), acct.Nonce)
}

func TestPrefetchUnknownTrie(t *testing.T) {
	require := require.New(t)

	db, root := commitTestState(t, testAddrs(2))

	p, err := New(db, root, logging.NoLog{}, "", prometheus.NewRegistry())
	require.NoError(err)
	defer p.Close()

	// Nothing scheduled for this trie, nothing to return.
	require.Nil(p.Trie(common.HexToHash("0x01"), common.HexToHash("0x02")))
}

func TestPrefetchDuplicates(t *testing.T) {
	require := require.New(t)

	addrs := testAddrs(4)
	db, root := commitTestState(t, addrs)

	p, err := New(db, root, logging.NoLog{}, "", prometheus.NewRegistry())
	require.NoError(err)

	keys := [][]byte{addrs[0].Bytes(), addrs[1].Bytes()}
	p.Prefetch(common.Hash{}, root, common.Address{}, keys)
	p.Prefetch(common.Hash{}, root, common.Address{}, keys)

	fetcher := p.fetchers[p.trieID(common.Hash{}, root)]
	require.NotNil(fetcher)
	require.Equal(2, fetcher.dups)
	require.Len(fetcher.seen, 2)

	p.Close()
}

func TestPrefetcherCopy(t *testing.T) {
	require := require.New(t)

	addrs := testAddrs(4)
	db, root := commitTestState(t, addrs)

	p, err := New(db, root, logging.NoLog{}, "", prometheus.NewRegistry())
	require.NoError(err)

	keys := make([][]byte, len(addrs))
	for i, addr := range addrs {
		keys[i] = addr.Bytes()
	}
	p.Prefetch(common.Hash{}, root, common.Address{}, keys)

	// Interrupt the fetcher so its trie is settled, then take an inactive
	// copy. Copies serve tries without scheduling any new work.
	require.NotNil(p.Trie(common.Hash{}, root))
	cpy := p.Copy()
	p.Close()

	trie := cpy.Trie(common.Hash{}, root)
	require.NotNil(trie)
	require.Equal(root, trie.Hash())

	// Scheduling on a copy is a no-op, and a copy of a copy still serves.
	cpy.Prefetch(common.Hash{}, root, common.Address{}, keys)
	cpy2 := cpy.Copy()
	require.NotNil(cpy2.Trie(common.Hash{}, root))
	cpy.Close()
	cpy2.Close()
}

func TestPrefetchAbortedEarly(t *testing.T) {
	require := require.New(t)

	addrs := testAddrs(16)
	db, root := commitTestState(t, addrs)

	p, err := New(db, root, logging.NoLog{}, "", prometheus.NewRegistry())
	require.NoError(err)

	keys := make([][]byte, len(addrs))
	for i, addr := range addrs {
		keys[i] = addr.Bytes()
	}
	p.Prefetch(common.Hash{}, root, common.Address{}, keys)

	// Closing immediately may drop scheduled tasks, but never corrupts the
	// loaded state: the copy taken before Close still answers correctly.
	trie := p.Trie(common.Hash{}, root)
	require.NotNil(trie)
	p.Close()

	acct, err := trie.GetAccount(addrs[0])
	require.NoError(err)
	require.NotNil(acct)
}
