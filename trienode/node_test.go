// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trienode

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestNodeSetMergeSameOwner(t *testing.T) {
	require := require.New(t)

	owner := common.HexToHash("0x01")
	a := NewNodeSet(owner)
	a.AddNode([]byte{0x01}, New(common.HexToHash("0xaa"), []byte{0xaa}))

	b := NewNodeSet(owner)
	b.AddNode([]byte{0x02}, New(common.HexToHash("0xbb"), []byte{0xbb}))
	b.AddNode([]byte{0x03}, NewDeleted())

	require.NoError(a.MergeSet(b))
	require.Len(a.Nodes, 3)
	updates, deletes := a.Size()
	require.Equal(2, updates)
	require.Equal(1, deletes)
}

// Merging across owners would mix one storage trie's paths into another's;
// it must fail and leave the destination untouched.
func TestNodeSetMergeRejectsCrossOwner(t *testing.T) {
	require := require.New(t)

	a := NewNodeSet(common.HexToHash("0x01"))
	a.AddNode([]byte{0x01}, New(common.HexToHash("0xaa"), []byte{0xaa}))

	b := NewNodeSet(common.HexToHash("0x02"))
	b.AddNode([]byte{0x02}, New(common.HexToHash("0xbb"), []byte{0xbb}))

	require.Error(a.MergeSet(b))
	require.Len(a.Nodes, 1)
	updates, deletes := a.Size()
	require.Equal(1, updates)
	require.Zero(deletes)
}

func TestNodeSetForEachWithOrder(t *testing.T) {
	require := require.New(t)

	set := NewNodeSet(common.Hash{})
	set.AddNode([]byte{0x01}, New(common.HexToHash("0xaa"), []byte{0xaa}))
	set.AddNode([]byte{0x01, 0x02}, New(common.HexToHash("0xbb"), []byte{0xbb}))
	set.AddNode([]byte{}, New(common.HexToHash("0xcc"), []byte{0xcc}))

	var order []string
	set.ForEachWithOrder(func(path string, _ *Node) {
		order = append(order, path)
	})
	// Bottom-up: the longest path first, root last.
	require.Equal([]string{string([]byte{0x01, 0x02}), string([]byte{0x01}), ""}, order)
}

func TestMergedNodeSet(t *testing.T) {
	require := require.New(t)

	accounts := NewNodeSet(common.Hash{})
	accounts.AddNode([]byte{0x01}, New(common.HexToHash("0xaa"), []byte{0xaa}))

	storage := NewNodeSet(common.HexToHash("0x02"))
	storage.AddNode([]byte{0x01}, New(common.HexToHash("0xbb"), []byte{0xbb}))

	merged := NewWithNodeSet(accounts)
	require.NoError(merged.Merge(storage))

	flat := merged.Flatten()
	require.Len(flat, 2)
	require.Contains(flat, common.Hash{})
	require.Contains(flat, common.HexToHash("0x02"))
}

func TestNodeIsDeleted(t *testing.T) {
	require := require.New(t)

	require.True(NewDeleted().IsDeleted())
	require.False(New(common.HexToHash("0x01"), []byte{0x01}).IsDeleted())
}
