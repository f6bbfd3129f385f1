// Package metrics exposes Prometheus instrumentation for ingestion, linkage
// and neighborhood queries. A nil *Recorder is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the fintrace collectors registered against one registry.
type Recorder struct {
	upserts       *prometheus.CounterVec
	linkageEdges  *prometheus.CounterVec
	linkageCapped *prometheus.CounterVec
	neighborhoods *prometheus.CounterVec
	storeLatency  *prometheus.HistogramVec
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in
// tests to keep them isolated from the default registry.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		// Labels: label (User, Transaction)
		upserts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrace",
			Name:      "upserts_total",
			Help:      "Nodes created or updated through the entity upsert path",
		}, []string{"label"}),

		// Labels: type (SAME_IP, SAME_DEVICE)
		linkageEdges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrace",
			Name:      "linkage_edges_total",
			Help:      "Linkage edges ensured by the linkage engine",
		}, []string{"type"}),

		linkageCapped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrace",
			Name:      "linkage_cap_reached_total",
			Help:      "Linkage passes whose candidate set hit the fan-out bound",
		}, []string{"type"}),

		// Labels: seed (user, transaction), result (found, missing, error)
		neighborhoods: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrace",
			Name:      "neighborhood_queries_total",
			Help:      "Neighborhood queries by seed kind and outcome",
		}, []string{"seed", "result"}),

		storeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fintrace",
			Name:      "store_operation_seconds",
			Help:      "Graph store call latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
}

func (r *Recorder) Upsert(label string) {
	if r == nil {
		return
	}
	r.upserts.WithLabelValues(label).Inc()
}

// LinkageEdges counts edges ensured by one pass.
func (r *Recorder) LinkageEdges(edgeType string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.linkageEdges.WithLabelValues(edgeType).Add(float64(n))
}

func (r *Recorder) LinkageCapReached(edgeType string) {
	if r == nil {
		return
	}
	r.linkageCapped.WithLabelValues(edgeType).Inc()
}

func (r *Recorder) Neighborhood(seed, result string) {
	if r == nil {
		return
	}
	r.neighborhoods.WithLabelValues(seed, result).Inc()
}

// ObserveStore records the latency of a store call started at start.
func (r *Recorder) ObserveStore(operation string, start time.Time) {
	if r == nil {
		return
	}
	r.storeLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
