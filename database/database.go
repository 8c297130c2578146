// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package database defines the interface of the key-value stores that back
// the trie engine.
package database

import (
	"context"
	"io"
)

// KeyValueReader is a read-only key-value store.
type KeyValueReader interface {
	// Has returns if the key is set in the database
	Has(key []byte) (bool, error)

	// Get returns the value the key maps to in the database
	Get(key []byte) ([]byte, error)
}

// KeyValueWriter is a write-only key-value store.
type KeyValueWriter interface {
	// Put sets the value of the provided key to the provided value
	Put(key []byte, value []byte) error
}

// KeyValueDeleter is a delete-only key-value store.
type KeyValueDeleter interface {
	// Delete removes the key from the database
	Delete(key []byte) error
}

// KeyValueReaderWriter allows read/write acccess to a backend key-value store.
type KeyValueReaderWriter interface {
	KeyValueReader
	KeyValueWriter
}

// KeyValueWriterDeleter allows write/delete access to a backend key-value store.
type KeyValueWriterDeleter interface {
	KeyValueWriter
	KeyValueDeleter
}

// KeyValueReaderWriterDeleter allows read/write/delete access to a backend
// key-value store.
type KeyValueReaderWriterDeleter interface {
	KeyValueReader
	KeyValueWriter
	KeyValueDeleter
}

// Compacter wraps the Compact method of a backing data store.
type Compacter interface {
	// Compact the underlying DB for the given key range.
	// Specifically, deleted and overwritten versions are discarded,
	// and the data is rearranged to reduce the cost of operations
	// needed to access the data. This operation should typically only
	// be invoked by users who understand the underlying implementation.
	//
	// A nil start is treated as a key before all keys in the DB.
	// And a nil limit is treated as a key after all keys in the DB.
	// Therefore if both are nil then it will compact entire DB.
	Compact(start []byte, limit []byte) error
}

// HealthChecker reports whether the database is usable.
type HealthChecker interface {
	HealthCheck(context.Context) (interface{}, error)
}

// Database contains all the methods required to allow handling different
// key-value data stores backing the trie engine.
type Database interface {
	KeyValueReaderWriterDeleter
	Batcher
	Iteratee
	Compacter
	io.Closer
	HealthChecker
}
