// Package metrics registers the Prometheus instrumentation exposed by
// `bimalign serve`, grounded in the same client_golang registry pattern
// used for the corpus's HTTP services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles the counters and histograms one alignment run updates.
type Registry struct {
	RunsTotal        prometheus.Counter
	RunFailuresTotal *prometheus.CounterVec
	VertexCount      prometheus.Histogram
	Displacement     prometheus.Histogram
	EditsByRule      *prometheus.CounterVec
	RunDuration      prometheus.Histogram
}

// New registers every metric against reg and returns the bundle.
func New(reg *prometheus.Registry) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		RunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "bimalign_runs_total",
			Help: "Total number of alignment pipeline runs.",
		}),
		RunFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bimalign_run_failures_total",
			Help: "Total number of alignment pipeline runs that returned a fatal error, by code.",
		}, []string{"code"}),
		VertexCount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bimalign_run_vertex_count",
			Help:    "Number of vertices processed per run.",
			Buckets: prometheus.ExponentialBuckets(100, 4, 8),
		}),
		Displacement: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bimalign_vertex_displacement_meters",
			Help:    "Per-vertex snap displacement, in meters.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 10),
		}),
		EditsByRule: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bimalign_object_edits_total",
			Help: "Object-transform edits emitted, by source rule.",
		}, []string{"rule"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bimalign_run_duration_seconds",
			Help:    "Wall-clock duration of a full pipeline run.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveDisplacements records each vertex's displacement into the
// histogram.
func (r *Registry) ObserveDisplacements(displacements []float64) {
	for _, d := range displacements {
		r.Displacement.Observe(d)
	}
}
