// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package hashing wraps the keccak256 hash used for key derivation.
package hashing

import "golang.org/x/crypto/sha3"

// ComputeHash256 computes the keccak256 hash of the input byte slice.
func ComputeHash256(buf []byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	// Hash functions never return errors.
	_, _ = hasher.Write(buf)
	return hasher.Sum(nil)
}
