package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gateRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "rejections_total",
			Help:      "Requests stopped by authentication or role checks.",
		},
		[]string{"reason"},
	)

	mediaUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "uploads_total",
			Help:      "Media uploads by outcome.",
		},
		[]string{"result"},
	)

	storageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "failures_total",
			Help:      "Object storage calls that failed.",
		},
		[]string{"op"},
	)

	seoUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "seo",
			Name:      "upserts_total",
			Help:      "SEO upserts by whether a record was created or updated.",
		},
		[]string{"outcome"},
	)

	orphansRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "orphan_objects_removed_total",
			Help:      "Stored objects removed because no media record referenced them.",
		},
	)
)

// GateRejected counts a request stopped by the gate; reason is "unauthorized" or "forbidden".
func GateRejected(reason string) { gateRejections.WithLabelValues(reason).Inc() }

func MediaUploaded(result string) { mediaUploads.WithLabelValues(result).Inc() }

func StorageFailed(op string) { storageFailures.WithLabelValues(op).Inc() }

func SEOUpserted(created bool) {
	if created {
		seoUpserts.WithLabelValues("created").Inc()
		return
	}
	seoUpserts.WithLabelValues("updated").Inc()
}

func OrphansRemoved(n int) { orphansRemoved.Add(float64(n)) }
