// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// NanosecondsBuckets spans latencies from 100ns to ~100ms.
var NanosecondsBuckets = prometheus.ExponentialBuckets(
	float64(100*time.Nanosecond),
	2,
	20,
)

func NewNanosecondsLatencyMetric(namespace, name string) prometheus.Histogram {
	return prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Help:      fmt.Sprintf("Latency of a %s call in nanoseconds", name),
		Buckets:   NanosecondsBuckets,
	})
}
