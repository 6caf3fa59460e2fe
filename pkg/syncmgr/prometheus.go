package syncmgr

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics used in monitoring service.
var (
	syncedTxCnt = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of new transactions merged into the cache",
			Name:      "synced_transactions_total",
			Namespace: "pft",
		},
	)

	syncPageCnt = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of history pages fetched",
			Name:      "sync_pages_total",
			Namespace: "pft",
		},
	)

	syncFailCnt = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of sync calls that ended in an error",
			Name:      "sync_failures_total",
			Namespace: "pft",
		},
	)

	markerStallCnt = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of pagination marker stalls",
			Name:      "sync_marker_stalls_total",
			Namespace: "pft",
		},
	)

	cacheRebuildCnt = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of corrupt cache rebuilds",
			Name:      "cache_rebuilds_total",
			Namespace: "pft",
		},
	)

	lastSyncedLedger = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Ledger index the cache is synced up to",
			Name:      "last_synced_ledger",
			Namespace: "pft",
		},
	)
)

func init() {
	prometheus.MustRegister(
		syncedTxCnt,
		syncPageCnt,
		syncFailCnt,
		markerStallCnt,
		cacheRebuildCnt,
		lastSyncedLedger,
	)
}
