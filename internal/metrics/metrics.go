// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

// Package metrics exposes Prometheus counters for the search supervisor,
// scraped only when --metrics-addr is set.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// searchesRun counts every search_files invocation, by outcome.
	searchesRun = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "efind_searches_total",
		Help: "Total number of searches run",
	}, []string{"outcome"})

	// searchDuration tracks how long a search takes end to end.
	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "efind_search_duration_seconds",
		Help:    "Histogram of search_files call latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// pathsEmitted counts paths accepted by the post-filter and forwarded
	// to the processor chain.
	pathsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "efind_paths_emitted_total",
		Help: "Total number of paths emitted to the processor chain",
	})

	// postFilterAborts counts searches stopped early by a post-filter
	// evaluation error.
	postFilterAborts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "efind_post_filter_aborts_total",
		Help: "Total number of searches aborted by a post-filter error",
	})
)

// Outcome labels for RecordSearch.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeStopped = "stopped"
)

// RecordSearch records one completed search_files invocation.
func RecordSearch(outcome string, duration time.Duration) {
	searchesRun.WithLabelValues(outcome).Inc()
	searchDuration.Observe(duration.Seconds())
}

// RecordPathEmitted increments the paths-emitted counter.
func RecordPathEmitted() {
	pathsEmitted.Inc()
}

// RecordPostFilterAbort increments the post-filter-abort counter.
func RecordPostFilterAbort() {
	postFilterAborts.Inc()
}
