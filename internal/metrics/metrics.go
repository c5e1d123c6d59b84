// Package metrics holds the Prometheus collectors shared by the extraction, cache and
// document layers. They register on the default registry and are served by
// `guardia watch --metrics-addr`.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsSkipped counts table rows dropped during extraction.
	RowsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guardia",
		Subsystem: "extract",
		Name:      "rows_skipped_total",
		Help:      "Table rows dropped during extraction, by region and reason.",
	}, []string{"region", "reason"})

	// ExtractWarnings counts data-quality problems that did not drop a row.
	ExtractWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guardia",
		Subsystem: "extract",
		Name:      "warnings_total",
		Help:      "Data-quality warnings raised during extraction, by region and reason.",
	}, []string{"region", "reason"})

	// SchedulesLoaded is the number of dated entries currently cached per region.
	SchedulesLoaded = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "guardia",
		Subsystem: "cache",
		Name:      "schedules",
		Help:      "Dated schedule entries held in the cache.",
	}, []string{"region"})

	// CacheLookups counts cache reads by outcome (hit, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guardia",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Schedule cache lookups by region and outcome.",
	}, []string{"region", "outcome"})

	// CacheEvictions counts entries removed, by cause (boundary, invalidate, refresh).
	CacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guardia",
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "Schedule cache evictions by region and cause.",
	}, []string{"region", "cause"})

	// DocumentFetches counts document acquisitions by outcome (cached, downloaded, stale, error).
	DocumentFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guardia",
		Subsystem: "document",
		Name:      "fetches_total",
		Help:      "Document acquisitions by region and outcome.",
	}, []string{"region", "outcome"})
)
