// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prefetch

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trielab/triedb/utils/metric"
	"github.com/trielab/triedb/utils/wrappers"
)

func newCounter(namespace, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}

type metrics struct {
	accountLoads  prometheus.Counter
	accountDups   prometheus.Counter
	accountSkips  prometheus.Counter
	accountWaste  prometheus.Counter
	storageLoads  prometheus.Counter
	storageDups   prometheus.Counter
	storageSkips  prometheus.Counter
	storageWaste  prometheus.Counter
	waitDuration  prometheus.Histogram
}

func (m *metrics) Initialize(namespace string, reg prometheus.Registerer) error {
	m.accountLoads = newCounter(namespace, "account_loads", "number of account entries warmed")
	m.accountDups = newCounter(namespace, "account_dups", "number of duplicate account warm requests")
	m.accountSkips = newCounter(namespace, "account_skips", "number of account warm requests dropped on interrupt")
	m.accountWaste = newCounter(namespace, "account_waste", "number of warmed account entries never used")
	m.storageLoads = newCounter(namespace, "storage_loads", "number of storage entries warmed")
	m.storageDups = newCounter(namespace, "storage_dups", "number of duplicate storage warm requests")
	m.storageSkips = newCounter(namespace, "storage_skips", "number of storage warm requests dropped on interrupt")
	m.storageWaste = newCounter(namespace, "storage_waste", "number of warmed storage entries never used")
	m.waitDuration = metric.NewNanosecondsLatencyMetric(namespace, "wait")

	errs := wrappers.Errs{}
	errs.Add(
		reg.Register(m.accountLoads),
		reg.Register(m.accountDups),
		reg.Register(m.accountSkips),
		reg.Register(m.accountWaste),
		reg.Register(m.storageLoads),
		reg.Register(m.storageDups),
		reg.Register(m.storageSkips),
		reg.Register(m.storageWaste),
		reg.Register(m.waitDuration),
	)
	return errs.Err
}
