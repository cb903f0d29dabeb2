package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the in-process counters and histograms the orchestrator
// updates as it moves through phase A and the cascade. There is no HTTP
// exporter wired up; callers that want to publish these can register
// Registry with their own promhttp.Handler.
type Metrics struct {
	Registry *prometheus.Registry

	BytesSorted       prometheus.Counter
	RunsGenerated     prometheus.Counter
	CascadeIterations prometheus.Counter
	MergeDuration     prometheus.Histogram
}

// NewMetrics constructs a Metrics with a private registry so that
// repeated test construction never collides with prometheus's default
// global registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		BytesSorted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "extsort_bytes_sorted_total",
			Help: "Total bytes moved through phase A and the cascade merge.",
		}),
		RunsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "extsort_runs_generated_total",
			Help: "Total temp runs written by phase A.",
		}),
		CascadeIterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "extsort_cascade_iterations_total",
			Help: "Total cascade merge iterations performed, excluding the final merge.",
		}),
		MergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "extsort_merge_duration_seconds",
			Help:    "Wall-clock duration of the whole merge phase (cascade steps plus the final merge), observed once per sort.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.BytesSorted, m.RunsGenerated, m.CascadeIterations, m.MergeDuration)
	return m
}
