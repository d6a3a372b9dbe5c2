package net

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type syncMetrics struct {
	blocksApplied  prometheus.Counter
	batches        prometheus.Counter
	syncErrors     *prometheus.CounterVec
	currentHeight  prometheus.Gauge
	latestHeight   prometheus.Gauge
	fetchDuration  prometheus.Histogram
	submittedTotal *prometheus.CounterVec
}

// newSyncMetrics registers on reg; a nil reg keeps the metrics unregistered.
func newSyncMetrics(reg prometheus.Registerer) *syncMetrics {
	factory := promauto.With(reg)
	return &syncMetrics{
		blocksApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "lumina_sync_blocks_applied_total",
			Help: "Blocks applied to the wallet",
		}),
		batches: factory.NewCounter(prometheus.CounterOpts{
			Name: "lumina_sync_batches_total",
			Help: "Block ranges fetched and applied",
		}),
		syncErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lumina_sync_errors_total",
			Help: "Failed ledger requests by operation",
		}, []string{"operation"}),
		currentHeight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lumina_sync_current_height",
			Help: "Next height the wallet will apply",
		}),
		latestHeight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lumina_sync_latest_height",
			Help: "Latest known remote height",
		}),
		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lumina_sync_fetch_duration_seconds",
			Help:    "Duration of block range fetches",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5},
		}),
		submittedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lumina_submitted_transactions_total",
			Help: "Submitted transactions by ledger answer",
		}, []string{"result"}),
	}
}

func (m *syncMetrics) observeFetch(start time.Time) {
	m.fetchDuration.Observe(time.Since(start).Seconds())
}
