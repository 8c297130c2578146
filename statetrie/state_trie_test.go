// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package statetrie

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

func newEmptyStateTrie(t *testing.T, db *testDb) *StateTrie {
	trie, err := NewStateTrie(TrieID(EmptyRootHash), db)
	require.NoError(t, err)
	return trie
}

func TestStateTrieRoundTrip(t *testing.T) {
	require := require.New(t)

	trie := newEmptyStateTrie(t, newTestDb())
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")

	require.NoError(trie.UpdateStorage(addr, []byte("slot"), []byte("value")))
	got, err := trie.GetStorage(addr, []byte("slot"))
	require.NoError(err)
	require.Equal([]byte("value"), got)
}

// The raw key must never appear as a literal path in the trie; only its
// keccak256 image does.
func TestStateTrieKeyIsHashed(t *testing.T) {
	require := require.New(t)

	trie := newEmptyStateTrie(t, newTestDb())
	addr := common.HexToAddress("0x2222222222222222222222222222222222222222")
	key := []byte("rawkeyrawkeyrawkeyrawkeyrawkeyra")

	require.NoError(trie.UpdateStorage(addr, key, []byte("v")))

	// Lookup through the inner trie with the raw key misses.
	raw, err := trie.trie.Get(key)
	require.NoError(err)
	require.Nil(raw)

	// Lookup with the hashed key hits.
	sha := sha3.NewLegacyKeccak256()
	sha.Write(key)
	hashed := sha.Sum(nil)
	enc, err := trie.trie.Get(hashed)
	require.NoError(err)
	require.NotEmpty(enc)
}

func TestStateTrieGetKey(t *testing.T) {
	require := require.New(t)

	db := newTestDb()
	trie := newEmptyStateTrie(t, db)
	addr := common.HexToAddress("0x3333333333333333333333333333333333333333")
	key := []byte("storage key")

	require.NoError(trie.UpdateStorage(addr, key, []byte("v")))

	sha := sha3.NewLegacyKeccak256()
	sha.Write(key)
	hashed := sha.Sum(nil)
	require.Equal(key, trie.GetKey(hashed))

	// After commit the preimage survives via the preimage store.
	_, nodes, err := trie.Commit(false)
	require.NoError(err)
	db.update(nodes)
	require.Equal(key, trie.GetKey(hashed))
}

func TestStateTrieAccounts(t *testing.T) {
	require := require.New(t)

	db := newTestDb()
	trie := newEmptyStateTrie(t, db)
	addr := common.HexToAddress("0x4444444444444444444444444444444444444444")
	acct := &StateAccount{
		Nonce:    1,
		Balance:  big.NewInt(1000),
		Root:     EmptyRootHash,
		CodeHash: EmptyCodeHash.Bytes(),
	}

	require.NoError(trie.UpdateAccount(addr, acct))
	got, err := trie.GetAccount(addr)
	require.NoError(err)
	require.Equal(acct.Nonce, got.Nonce)
	require.Zero(acct.Balance.Cmp(got.Balance))
	require.Equal(acct.Root, got.Root)
	require.Equal(acct.CodeHash, got.CodeHash)

	// A missing account is nil without error.
	missing, err := trie.GetAccount(common.HexToAddress("0x5555555555555555555555555555555555555555"))
	require.NoError(err)
	require.Nil(missing)

	// The single-account root is deterministic across independent builds.
	other := newEmptyStateTrie(t, newTestDb())
	require.NoError(other.UpdateAccount(addr, acct.Copy()))
	require.Equal(other.Hash(), trie.Hash())
	require.NotEqual(EmptyRootHash, trie.Hash())

	// Deleting the account restores the empty trie.
	require.NoError(trie.DeleteAccount(addr))
	require.Equal(EmptyRootHash, trie.Hash())
}

func TestStateTrieInvalidAccount(t *testing.T) {
	require := require.New(t)

	trie := newEmptyStateTrie(t, newTestDb())
	addr := common.HexToAddress("0x6666666666666666666666666666666666666666")

	// Plant a non-account payload at the account's hashed path.
	require.NoError(trie.trie.Update(trie.hashKey(addr.Bytes()), []byte{0xff, 0xfe}))

	_, err := trie.GetAccount(addr)
	require.ErrorIs(err, ErrInvalidAccount)
}

func TestStateTrieInvalidStorage(t *testing.T) {
	require := require.New(t)

	trie := newEmptyStateTrie(t, newTestDb())
	addr := common.HexToAddress("0x8888888888888888888888888888888888888888")
	key := []byte("slot")

	// Plant a truncated RLP string at the slot's hashed path.
	require.NoError(trie.trie.Update(trie.hashKey(key), []byte{0xb9, 0x01}))

	_, err := trie.GetStorage(addr, key)
	require.ErrorIs(err, ErrInvalidStorage)
}

// Commit stamps the node set with the trie's owner: zero for the account
// trie, the account hash for a storage trie.
func TestStateTrieCommitOwner(t *testing.T) {
	require := require.New(t)

	owner := common.HexToHash("0x9999999999999999999999999999999999999999999999999999999999999999")
	storage, err := NewStateTrie(StorageTrieID(EmptyRootHash, owner, EmptyRootHash), newTestDb())
	require.NoError(err)
	require.Equal(owner, storage.trie.Owner())

	require.NoError(storage.UpdateStorage(common.Address{}, []byte("slot"), []byte("value")))
	_, nodes, err := storage.Commit(false)
	require.NoError(err)
	require.NotNil(nodes)
	require.Equal(owner, nodes.Owner)

	accounts := newEmptyStateTrie(t, newTestDb())
	require.NoError(accounts.UpdateStorage(common.Address{}, []byte("slot"), []byte("value")))
	_, nodes, err = accounts.Commit(false)
	require.NoError(err)
	require.NotNil(nodes)
	require.Equal(common.Hash{}, nodes.Owner)
}

func TestStateTrieCopy(t *testing.T) {
	require := require.New(t)

	trie := newEmptyStateTrie(t, newTestDb())
	addr := common.HexToAddress("0x7777777777777777777777777777777777777777")
	require.NoError(trie.UpdateStorage(addr, []byte("a"), []byte("1")))
	before := trie.Hash()

	cpy := trie.Copy()
	require.NoError(cpy.UpdateStorage(addr, []byte("b"), []byte("2")))

	require.Equal(before, trie.Hash())
	require.NotEqual(before, cpy.Hash())
}

func TestStateAccountRLPRoundTrip(t *testing.T) {
	require := require.New(t)

	acct := &StateAccount{
		Nonce:    42,
		Balance:  big.NewInt(123456789),
		Root:     EmptyRootHash,
		CodeHash: EmptyCodeHash.Bytes(),
	}
	blob, err := FullAccountRLP(acct)
	require.NoError(err)

	got, err := FullAccount(blob)
	require.NoError(err)
	require.Equal(acct.Nonce, got.Nonce)
	require.Zero(acct.Balance.Cmp(got.Balance))
	require.Equal(acct.Root, got.Root)
	require.Equal(acct.CodeHash, got.CodeHash)

	_, err = FullAccount([]byte{0xc0, 0xff})
	require.Error(err)
}
