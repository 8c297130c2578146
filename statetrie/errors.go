// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package statetrie

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrCommitted is returned when an operation is requested on a trie that
	// has already been committed. A committed trie no longer reflects the
	// latest state and must be re-created from the new root.
	ErrCommitted = errors.New("trie is already committed")

	// ErrInvalidAccount is returned when an account leaf read from the trie
	// cannot be decoded.
	ErrInvalidAccount = errors.New("invalid account encoding")

	// ErrInvalidStorage is returned when a storage slot read from the trie
	// cannot be decoded.
	ErrInvalidStorage = errors.New("invalid storage encoding")

	// errNonConsensusNode is returned by GetNode when the requested node has
	// no consensus-form hash available.
	errNonConsensusNode = errors.New("non-consensus node")
)

// MissingNodeError is returned by the trie functions (Get, Update, Delete) in
// the case where a trie node is not present in the local database. It contains
// information necessary for retrieving the missing node.
type MissingNodeError struct {
	Owner    common.Hash // owner of the trie if it's 2-layered trie
	NodeHash common.Hash // hash of the missing node
	Path     []byte      // hex-encoded path to the missing node
	err      error       // concrete error for missing trie node
}

// Unwrap returns the concrete error for missing trie node which allows us for
// further analysis outside.
func (err *MissingNodeError) Unwrap() error {
	return err.err
}

func (err *MissingNodeError) Error() string {
	if err.Owner == (common.Hash{}) {
		return fmt.Sprintf("missing trie node %x (path %x) %v", err.NodeHash, err.Path, err.err)
	}
	return fmt.Sprintf("missing trie node %x (owner %x) (path %x) %v", err.NodeHash, err.Owner, err.Path, err.err)
}
