// Package observability registers Prometheus metrics for the ingest path.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	eventsAcceptedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduaccess",
		Subsystem: "ingest",
		Name:      "events_accepted_total",
		Help:      "Number of activity events merged, labeled by event kind.",
	}, []string{"kind"})

	eventsRejectedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduaccess",
		Subsystem: "ingest",
		Name:      "events_rejected_total",
		Help:      "Number of activity events rejected before any merge, labeled by reason.",
	}, []string{"reason"})

	mergeAppliedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "eduaccess",
		Subsystem: "persistence",
		Name:      "last_merge_timestamp_seconds",
		Help:      "Event timestamp of the most recent merge applied to the store.",
	})
)

func init() {
	prometheus.MustRegister(eventsAcceptedCounter, eventsRejectedCounter, mergeAppliedGauge)
}

// RecordEventAccepted counts one merged event of the given kind.
func RecordEventAccepted(kind string) {
	eventsAcceptedCounter.WithLabelValues(kind).Inc()
}

// RecordEventRejected counts one rejected event by reason.
func RecordEventRejected(reason string) {
	eventsRejectedCounter.WithLabelValues(reason).Inc()
}

// RecordMergeApplied updates the merge watermark gauge.
func RecordMergeApplied(ts time.Time) {
	if ts.IsZero() {
		return
	}
	mergeAppliedGauge.Set(float64(ts.Unix()))
}
