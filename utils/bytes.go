// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"math/bits"
	"sync"
)

// BytesPool tracks buckets of available buffers to be allocated. Each bucket
// holds buffers whose capacity is at least the power of two it is indexed by.
type BytesPool [33]sync.Pool

func NewBytesPool() *BytesPool {
	var p BytesPool
	for i := range p {
		// uint64 is required here to prevent overflow in the allocation of
		// buffers of size 2^32.
		size := uint64(1) << i
		p[i].New = func() any {
			b := make([]byte, size)
			return &b
		}
	}
	return &p
}

// Get returns a non-nil pointer to a slice with the requested length.
//
// It is not guaranteed for the returned bytes to have been zeroed.
func (p *BytesPool) Get(length int) *[]byte {
	bytes := p[bucketLevel(length)].Get().(*[]byte)
	*bytes = (*bytes)[:length]
	return bytes
}

// Put takes ownership of a slice to be reused later. It is unsafe to reference
// the slice after calling Put.
func (p *BytesPool) Put(bytes *[]byte) {
	size := cap(*bytes)
	if size == 0 {
		return
	}
	// Place the buffer in the largest bucket whose buffers it can serve.
	level := bits.Len(uint(size)) - 1
	p[level].Put(bytes)
}

// bucketLevel returns the index of the smallest bucket whose buffers have
// capacity of at least [size].
func bucketLevel(size int) int {
	if size <= 1 {
		return 0
	}
	return bits.Len(uint(size - 1))
}
