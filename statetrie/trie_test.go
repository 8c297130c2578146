// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package statetrie

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/trielab/triedb/trienode"
)

// testDb is an in-memory node store backing tries under test. Nodes are keyed
// by hash, mirroring the production content-addressed store.
type testDb struct {
	nodes     map[common.Hash][]byte
	preimages map[common.Hash][]byte
}

func newTestDb() *testDb {
	return &testDb{
		nodes:     make(map[common.Hash][]byte),
		preimages: make(map[common.Hash][]byte),
	}
}

func (db *testDb) Reader(stateRoot common.Hash) (Reader, error) {
	if _, ok := db.nodes[stateRoot]; !ok {
		return nil, fmt.Errorf("state %#x is not available", stateRoot)
	}
	return db, nil
}

func (db *testDb) Node(_ common.Hash, _ []byte, hash common.Hash) ([]byte, error) {
	return db.nodes[hash], nil
}

func (db *testDb) Preimage(hash common.Hash) []byte {
	return db.preimages[hash]
}

func (db *testDb) InsertPreimage(preimages map[common.Hash][]byte) {
	for hash, preimage := range preimages {
		db.preimages[hash] = preimage
	}
}

// update persists a commit result, the way the production store does.
func (db *testDb) update(nodes *trienode.NodeSet) {
	if nodes == nil {
		return
	}
	nodes.ForEachWithOrder(func(_ string, n *trienode.Node) {
		if !n.IsDeleted() {
			db.nodes[n.Hash] = n.Blob
		}
	})
}

func updateString(t *testing.T, trie *Trie, k, v string) {
	require.NoError(t, trie.Update([]byte(k), []byte(v)))
}

func getString(t *testing.T, trie *Trie, k string) []byte {
	res, err := trie.Get([]byte(k))
	require.NoError(t, err)
	return res
}

func deleteString(t *testing.T, trie *Trie, k string) {
	require.NoError(t, trie.Delete([]byte(k)))
}

func TestEmptyTrieRoot(t *testing.T) {
	require := require.New(t)

	trie := NewEmpty(newTestDb())
	require.Equal(EmptyRootHash, trie.Hash())

	// The canonical empty root is the keccak256 of the RLP encoding of an
	// empty byte string (0x80).
	sha := sha3.NewLegacyKeccak256()
	sha.Write([]byte{0x80})
	require.Equal(EmptyRootHash.Bytes(), sha.Sum(nil))
}

func TestGet(t *testing.T) {
	require := require.New(t)

	trie := NewEmpty(newTestDb())
	updateString(t, trie, "doe", "reindeer")
	updateString(t, trie, "dog", "puppy")
	updateString(t, trie, "dogglesworth", "cat")

	require.Equal([]byte("puppy"), getString(t, trie, "dog"))
	require.Nil(getString(t, trie, "unknown"))
}

func TestInsert(t *testing.T) {
	require := require.New(t)

	trie := NewEmpty(newTestDb())
	updateString(t, trie, "doe", "reindeer")
	updateString(t, trie, "dog", "puppy")
	updateString(t, trie, "dogglesworth", "cat")

	exp := common.HexToHash("8aad789dff2f538bca5d8ea56e8abe10f4c7ba3a5dea95fea4cd6e7c3a1168d3")
	require.Equal(exp, trie.Hash())

	trie = NewEmpty(newTestDb())
	updateString(t, trie, "A", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	exp = common.HexToHash("d23786fb4a010da3ce639d66d5e904a11dbc02746d1ce25029e53290cabf28ab")
	root, _, err := trie.Commit(false)
	require.NoError(err)
	require.Equal(exp, root)
}

func TestDelete(t *testing.T) {
	require := require.New(t)

	trie := NewEmpty(newTestDb())
	vals := []struct{ k, v string }{
		{"do", "verb"},
		{"ether", "wookiedoo"},
		{"horse", "stallion"},
		{"shaman", "horse"},
		{"doge", "coin"},
		{"ether", ""},
		{"dog", "puppy"},
		{"shaman", ""},
	}
	for _, val := range vals {
		if val.v != "" {
			updateString(t, trie, val.k, val.v)
		} else {
			deleteString(t, trie, val.k)
		}
	}

	exp := common.HexToHash("5991bb8c6514148a29db676a14ac506cd2cd5775ace63c30a4fe457715e9ac84")
	require.Equal(exp, trie.Hash())
}

// Updating with an empty value must behave exactly like deletion.
func TestEmptyValues(t *testing.T) {
	require := require.New(t)

	trie := NewEmpty(newTestDb())
	vals := []struct{ k, v string }{
		{"do", "verb"},
		{"ether", "wookiedoo"},
		{"horse", "stallion"},
		{"shaman", "horse"},
		{"doge", "coin"},
		{"ether", ""},
		{"dog", "puppy"},
		{"shaman", ""},
	}
	for _, val := range vals {
		require.NoError(trie.Update([]byte(val.k), []byte(val.v)))
	}

	exp := common.HexToHash("5991bb8c6514148a29db676a14ac506cd2cd5775ace63c30a4fe457715e9ac84")
	require.Equal(exp, trie.Hash())
}

func TestReplication(t *testing.T) {
	require := require.New(t)

	db := newTestDb()
	trie := NewEmpty(db)
	vals := map[string]string{
		"do":           "verb",
		"ether":        "wookiedoo",
		"horse":        "stallion",
		"shaman":       "horse",
		"doge":         "coin",
		"dog":          "puppy",
		"somethingveryoddindeedthis is": "myothernodedata",
	}
	for k, v := range vals {
		updateString(t, trie, k, v)
	}
	root, nodes, err := trie.Commit(false)
	require.NoError(err)
	db.update(nodes)

	// Recreate the trie from the database and check all values survived.
	trie2, err := New(TrieID(root), db)
	require.NoError(err)
	for k, v := range vals {
		require.Equal([]byte(v), getString(t, trie2, k))
	}
	require.Equal(root, trie2.Hash())

	// Recreating from an unknown root must fail with a MissingNodeError.
	_, err = New(TrieID(common.HexToHash("deadbeef")), db)
	require.Error(err)
	var missing *MissingNodeError
	require.ErrorAs(err, &missing)
}

func TestCommittedTrieUnusable(t *testing.T) {
	require := require.New(t)

	trie := NewEmpty(newTestDb())
	updateString(t, trie, "dog", "puppy")
	_, _, err := trie.Commit(false)
	require.NoError(err)

	_, err = trie.Get([]byte("dog"))
	require.ErrorIs(err, ErrCommitted)
	require.ErrorIs(trie.Update([]byte("dog"), []byte("cat")), ErrCommitted)
	require.ErrorIs(trie.Delete([]byte("dog")), ErrCommitted)
	_, _, err = trie.GetNode([]byte{0x00})
	require.ErrorIs(err, ErrCommitted)
}

// A second commit without intervening mutation yields the same root and an
// empty node set.
func TestCommitIdempotent(t *testing.T) {
	require := require.New(t)

	trie := NewEmpty(newTestDb())
	updateString(t, trie, "doe", "reindeer")
	updateString(t, trie, "dog", "puppy")

	root, nodes, err := trie.Commit(false)
	require.NoError(err)
	require.NotNil(nodes)

	root2, nodes2, err := trie.Commit(false)
	require.NoError(err)
	require.Equal(root, root2)
	if nodes2 != nil {
		updates, deletes := nodes2.Size()
		require.Zero(updates)
		require.Zero(deletes)
	}
}

// Inserting a previously absent key and deleting it again restores the root.
func TestInsertDeleteInverse(t *testing.T) {
	require := require.New(t)

	trie := NewEmpty(newTestDb())
	updateString(t, trie, "doe", "reindeer")
	updateString(t, trie, "dog", "puppy")
	before := trie.Hash()

	updateString(t, trie, "dogglesworth", "cat")
	require.NotEqual(before, trie.Hash())

	deleteString(t, trie, "dogglesworth")
	require.Equal(before, trie.Hash())
}

// Deleting one of two keys sharing a long common prefix must collapse the
// branch: the result equals a trie that only ever saw the remaining key.
func TestBranchCollapse(t *testing.T) {
	require := require.New(t)

	trie := NewEmpty(newTestDb())
	updateString(t, trie, "horsemeat", "stallion")
	updateString(t, trie, "horsecart", "wagon")
	deleteString(t, trie, "horsecart")

	alone := NewEmpty(newTestDb())
	updateString(t, alone, "horsemeat", "stallion")

	require.Equal(alone.Hash(), trie.Hash())
}

func TestCopy(t *testing.T) {
	require := require.New(t)

	trie := NewEmpty(newTestDb())
	updateString(t, trie, "doe", "reindeer")
	before := trie.Hash()

	cpy := trie.Copy()
	updateString(t, cpy, "dog", "puppy")

	require.Equal(before, trie.Hash())
	require.NotEqual(before, cpy.Hash())
	require.Nil(getString(t, trie, "dog"))
}

// Hashing many entries in one pass exercises the parallel hasher; the result
// must match incremental hashing, which stays on the sequential path.
func TestParallelHashMatchesSequential(t *testing.T) {
	require := require.New(t)

	bulk := NewEmpty(newTestDb())
	incremental := NewEmpty(newTestDb())
	rng := rand.New(rand.NewSource(1)) //#nosec G404
	for i := 0; i < 500; i++ {
		key := make([]byte, 32)
		val := make([]byte, 64)
		rng.Read(key)
		rng.Read(val)
		require.NoError(bulk.Update(key, val))
		require.NoError(incremental.Update(key, val))
		if i%10 == 0 {
			incremental.Hash()
		}
	}
	require.Equal(incremental.Hash(), bulk.Hash())
}

func TestRootOrderIndependence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("insertion order does not change the root", prop.ForAll(
		func(seed int64) bool {
			rng := rand.New(rand.NewSource(seed)) //#nosec G404
			entries := make(map[string][]byte)
			for i := 0; i < 1+rng.Intn(64); i++ {
				key := make([]byte, 1+rng.Intn(32))
				val := make([]byte, 1+rng.Intn(32))
				rng.Read(key)
				rng.Read(val)
				entries[string(key)] = val
			}
			var (
				keys [][]byte
				vals [][]byte
			)
			for key, val := range entries {
				keys = append(keys, []byte(key))
				vals = append(vals, val)
			}
			n := len(keys)

			trie1 := NewEmpty(newTestDb())
			for i := range keys {
				if err := trie1.Update(keys[i], vals[i]); err != nil {
					return false
				}
			}

			trie2 := NewEmpty(newTestDb())
			for _, i := range rng.Perm(n) {
				if err := trie2.Update(keys[i], vals[i]); err != nil {
					return false
				}
			}
			return trie1.Hash() == trie2.Hash()
		},
		gen.Int64(),
	))

	properties.Property("deleting restores the prior root", prop.ForAll(
		func(seed int64) bool {
			rng := rand.New(rand.NewSource(seed)) //#nosec G404
			trie := NewEmpty(newTestDb())
			for i := 0; i < 16; i++ {
				key := make([]byte, 8)
				val := make([]byte, 8)
				rng.Read(key)
				rng.Read(val)
				if err := trie.Update(key, val); err != nil {
					return false
				}
			}
			before := trie.Hash()

			extra := make([]byte, 16)
			val := make([]byte, 8)
			rng.Read(extra)
			rng.Read(val)
			if got, err := trie.Get(extra); err != nil || got != nil {
				return false
			}
			if err := trie.Update(extra, val); err != nil {
				return false
			}
			if err := trie.Delete(extra); err != nil {
				return false
			}
			return trie.Hash() == before
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestGetNode(t *testing.T) {
	require := require.New(t)

	db := newTestDb()
	trie := NewEmpty(db)
	updateString(t, trie, "doe", "reindeer")
	updateString(t, trie, "dog", "puppy")
	updateString(t, trie, "dogglesworth", "cat")
	root, nodes, err := trie.Commit(false)
	require.NoError(err)
	db.update(nodes)

	trie, err = New(TrieID(root), db)
	require.NoError(err)

	// The empty path addresses the root node itself.
	blob, resolved, err := trie.GetNode([]byte{})
	require.NoError(err)
	require.NotEmpty(blob)
	require.LessOrEqual(resolved, 1)
	require.Equal(db.nodes[root], blob)
}
