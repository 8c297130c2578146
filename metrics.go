// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package triedb

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trielab/triedb/utils/metric"
	"github.com/trielab/triedb/utils/wrappers"
)

type metrics struct {
	// cumulative number of trie nodes written to disk
	nodeWrites prometheus.Counter
	// cumulative size, in bytes, of trie nodes written to disk
	nodeWriteBytes prometheus.Counter
	// time spent persisting node sets
	updateDuration prometheus.Histogram
}

func (m *metrics) Initialize(namespace string, reg prometheus.Registerer) error {
	m.nodeWrites = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "node_writes",
		Help:      "cumulative number of trie nodes written to disk",
	})
	m.nodeWriteBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "node_write_bytes",
		Help:      "cumulative size of trie nodes written to disk",
	})
	m.updateDuration = metric.NewNanosecondsLatencyMetric(namespace, "update")

	errs := wrappers.Errs{}
	errs.Add(
		reg.Register(m.nodeWrites),
		reg.Register(m.nodeWriteBytes),
		reg.Register(m.updateDuration),
	)
	return errs.Err
}
