// Package metrics provides Prometheus metrics for the gallery server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the Prometheus registry served on /metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// GalleryMetrics holds the counters shared by the services and the storage
// adapters.
type GalleryMetrics struct {
	Uploads            *prometheus.CounterVec // labels: label, outcome
	Selections         *prometheus.CounterVec // labels: label, outcome
	ChunksCreated      *prometheus.CounterVec // labels: label
	ObjectStoreRetries prometheus.Counter
}

// New registers the gallery metrics with the given registerer. Tests pass
// their own registry to avoid duplicate registration.
func New(reg prometheus.Registerer) *GalleryMetrics {
	return &GalleryMetrics{
		Uploads: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pet_gallery_uploads_total",
			Help: "Total upload requests by label and outcome",
		}, []string{"label", "outcome"}),
		Selections: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pet_gallery_selections_total",
			Help: "Total random-image selections by label and outcome",
		}, []string{"label", "outcome"}),
		ChunksCreated: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pet_gallery_chunks_created_total",
			Help: "Total chunks created by label",
		}, []string{"label"}),
		ObjectStoreRetries: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "pet_gallery_object_store_retries_total",
			Help: "Total retried object store operations",
		}),
	}
}
