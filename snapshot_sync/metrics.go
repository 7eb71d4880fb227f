package snapshot_sync

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "focussync"

// Metrics are the Prometheus collectors of a synchronizer.
type Metrics struct {
	Runs             prometheus.Counter
	Writes           *prometheus.CounterVec
	Empty            prometheus.Counter
	Panics           prometheus.Counter
	TreeRebuilds     prometheus.Counter
	PipelineDuration prometheus.Histogram
	ArtifactBytes    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_runs_total",
			Help:      "Number of snapshot pipeline runs.",
		}),
		Writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "writes_total",
			Help:      "Writer outcomes by result (skipped, atomic, fallback, failed).",
		}, []string{"result"}),
		Empty: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "empty_runs_total",
			Help:      "Runs with no active document or folder.",
		}),
		Panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "recovered_panics_total",
			Help:      "Panics caught by the pipeline error barrier.",
		}),
		TreeRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tree_rebuilds_total",
			Help:      "Folder tree and breadcrumb recomputations.",
		}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Time spent assembling and writing one snapshot.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		ArtifactBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "artifact_bytes",
			Help:      "Size of the last persisted snapshot.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Runs, m.Writes, m.Empty, m.Panics, m.TreeRebuilds, m.PipelineDuration, m.ArtifactBytes)
	}
	return m
}
