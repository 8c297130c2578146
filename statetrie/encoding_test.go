// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package statetrie

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHexCompact(t *testing.T) {
	tests := []struct{ hex, compact []byte }{
		// empty keys, with and without terminator.
		{hex: []byte{}, compact: []byte{0x00}},
		{hex: []byte{16}, compact: []byte{0x20}},
		// odd length, no terminator
		{hex: []byte{1, 2, 3, 4, 5}, compact: []byte{0x11, 0x23, 0x45}},
		// even length, no terminator
		{hex: []byte{0, 1, 2, 3, 4, 5}, compact: []byte{0x00, 0x01, 0x23, 0x45}},
		// odd length, terminator
		{hex: []byte{15, 1, 12, 11, 8, 16}, compact: []byte{0x3f, 0x1c, 0xb8}},
		// even length, terminator
		{hex: []byte{0, 15, 1, 12, 11, 8, 16}, compact: []byte{0x20, 0x0f, 0x1c, 0xb8}},
	}
	for _, test := range tests {
		require.Equal(t, test.compact, hexToCompact(test.hex))
		require.Equal(t, test.hex, compactToHex(test.compact))
	}
}

func TestHexKeybytes(t *testing.T) {
	tests := []struct{ key, hexIn, hexOut []byte }{
		{key: []byte{}, hexIn: []byte{16}, hexOut: []byte{16}},
		{key: []byte{}, hexIn: []byte{}, hexOut: []byte{16}},
		{
			key:    []byte{0x12, 0x34, 0x56},
			hexIn:  []byte{1, 2, 3, 4, 5, 6, 16},
			hexOut: []byte{1, 2, 3, 4, 5, 6, 16},
		},
		{
			key:    []byte{0x12, 0x34, 0x5},
			hexIn:  []byte{1, 2, 3, 4, 0, 5, 16},
			hexOut: []byte{1, 2, 3, 4, 0, 5, 16},
		},
		{
			key:    []byte{0x12, 0x34, 0x56},
			hexIn:  []byte{1, 2, 3, 4, 5, 6},
			hexOut: []byte{1, 2, 3, 4, 5, 6, 16},
		},
	}
	for _, test := range tests {
		require.Equal(t, test.hexOut, keybytesToHex(test.key))
		require.Equal(t, test.key, hexToKeybytes(test.hexIn))
	}
}

func TestHexToKeybytesOddLengthPanics(t *testing.T) {
	require.Panics(t, func() {
		hexToKeybytes([]byte{1, 2, 3})
	})
	require.Panics(t, func() {
		hexToKeybytes([]byte{1, 2, 3, 16})
	})
}

func TestPrefixLen(t *testing.T) {
	tests := []struct {
		a, b []byte
		want int
	}{
		{a: []byte{}, b: []byte{1, 2}, want: 0},
		{a: []byte{1, 2, 3}, b: []byte{1, 2}, want: 2},
		{a: []byte{1, 2, 3}, b: []byte{1, 2, 3}, want: 3},
		{a: []byte{1, 2, 3}, b: []byte{4, 5, 6}, want: 0},
	}
	for _, test := range tests {
		require.Equal(t, test.want, prefixLen(test.a, test.b))
	}
}

func TestHexCompactRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42)) //#nosec G404

	for i := 0; i < 10000; i++ {
		l := rng.Intn(128)
		key := make([]byte, l)
		for j := range key {
			key[j] = byte(rng.Intn(16))
		}
		if rng.Intn(2) == 0 {
			key = append(key, 16)
		}
		require.Equal(t, key, compactToHex(hexToCompact(key)))
	}
}
