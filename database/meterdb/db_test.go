// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package meterdb

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/trielab/triedb/database"
	"github.com/trielab/triedb/database/memdb"
)

func TestInterface(t *testing.T) {
	for name, test := range database.Tests {
		t.Run(name, func(t *testing.T) {
			baseDB := memdb.New()
			db, err := New("", prometheus.NewRegistry(), baseDB)
			require.NoError(t, err)

			test(t, db)
		})
	}
}
