package sim

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Client-side snapshot metrics. Bounded cardinality: no per-agent labels.
var (
	snapshotLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_snapshot_roundtrip_seconds",
		Help:    "Full snapshot poll round trip (step + agents + lights)",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	snapshotFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_snapshot_failures_total",
		Help: "Snapshot polls that failed and were dropped",
	})
)

// ObserveSnapshotLatency records one completed snapshot round trip.
func ObserveSnapshotLatency(d time.Duration) {
	snapshotLatency.Observe(d.Seconds())
}

// RecordSnapshotFailure counts a failed poll. The table is left unchanged and
// the next cycle is the de facto retry.
func RecordSnapshotFailure() {
	snapshotFailures.Inc()
}
