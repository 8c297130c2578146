// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prefixdb

import (
	"testing"

	"github.com/trielab/triedb/database"
	"github.com/trielab/triedb/database/memdb"
)

func TestInterface(t *testing.T) {
	for name, test := range database.Tests {
		t.Run(name, func(t *testing.T) {
			db := memdb.New()
			test(t, New([]byte("hello"), db))
		})
		t.Run(name+"_nested", func(t *testing.T) {
			db := memdb.New()
			test(t, New([]byte("wor"), New([]byte("ld"), db)))
		})
	}
}
