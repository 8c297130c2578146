// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package leveldb

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/trielab/triedb/utils/wrappers"
)

var ErrCouldNotOpen = errors.New("could not open leveldb")

func newGauge(namespace, name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}

type metrics struct {
	// total number of writes that have been delayed due to compaction
	writesDelayedCount prometheus.Gauge
	// total amount of time (in ns) that writes have been delayed due to
	// compaction
	writesDelayedDuration prometheus.Gauge
	// set to 1 if the writes are currently being delayed due to compaction
	writeIsDelayed prometheus.Gauge

	// number of currently alive snapshots
	aliveSnapshots prometheus.Gauge
	// number of currently alive iterators
	aliveIterators prometheus.Gauge

	// total amount of data written (in bytes)
	ioWrite prometheus.Gauge
	// total amount of data read (in bytes)
	ioRead prometheus.Gauge

	// total number of bytes of cached data blocks
	blockCacheSize prometheus.Gauge
	// current number of open tables
	openTables prometheus.Gauge
}

func (m *metrics) Initialize(namespace string, reg prometheus.Registerer) error {
	m.writesDelayedCount = newGauge(namespace, "writes_delayed", "number of cumulative writes that have been delayed due to compaction")
	m.writesDelayedDuration = newGauge(namespace, "writes_delayed_duration", "amount of time (in ns) that writes have been delayed due to compaction")
	m.writeIsDelayed = newGauge(namespace, "write_delayed", "1 if there is currently a write that is being delayed due to compaction")
	m.aliveSnapshots = newGauge(namespace, "alive_snapshots", "number of currently alive snapshots")
	m.aliveIterators = newGauge(namespace, "alive_iterators", "number of currently alive iterators")
	m.ioWrite = newGauge(namespace, "io_write", "cumulative amount of io write during compaction")
	m.ioRead = newGauge(namespace, "io_read", "cumulative amount of io read during compaction")
	m.blockCacheSize = newGauge(namespace, "block_cache_size", "total size of cached blocks")
	m.openTables = newGauge(namespace, "open_tables", "number of currently opened tables")

	errs := wrappers.Errs{}
	errs.Add(
		reg.Register(m.writesDelayedCount),
		reg.Register(m.writesDelayedDuration),
		reg.Register(m.writeIsDelayed),
		reg.Register(m.aliveSnapshots),
		reg.Register(m.aliveIterators),
		reg.Register(m.ioWrite),
		reg.Register(m.ioRead),
		reg.Register(m.blockCacheSize),
		reg.Register(m.openTables),
	)
	return errs.Err
}

func (m *metrics) update(stats *leveldb.DBStats) {
	m.writesDelayedCount.Set(float64(stats.WriteDelayCount))
	m.writesDelayedDuration.Set(float64(stats.WriteDelayDuration))
	if stats.WritePaused {
		m.writeIsDelayed.Set(1)
	} else {
		m.writeIsDelayed.Set(0)
	}

	m.aliveSnapshots.Set(float64(stats.AliveSnapshots))
	m.aliveIterators.Set(float64(stats.AliveIterators))

	m.ioWrite.Set(float64(stats.IOWrite))
	m.ioRead.Set(float64(stats.IORead))

	m.blockCacheSize.Set(float64(stats.BlockCacheSize))
	m.openTables.Set(float64(stats.OpenedTablesCount))
}
