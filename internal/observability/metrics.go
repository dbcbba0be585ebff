package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// report pipeline.
type Metrics struct {
	ReportsGenerated *prometheus.CounterVec // labels: outcome={live,mock}
	PipelineErrors   *prometheus.CounterVec // labels: stage={acquire,read,reduce}
	PipelineDuration prometheus.Histogram

	// Acquisition metrics.
	AcquisitionCache *prometheus.CounterVec   // labels: result={hit,miss}
	GranulesRead     prometheus.Counter
	EarthdataAPI     *prometheus.HistogramVec // labels: op={login,search,download}

	// Report event publishing.
	ReportsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsGenerated,
		m.PipelineErrors,
		m.PipelineDuration,
		m.AcquisitionCache,
		m.GranulesRead,
		m.EarthdataAPI,
		m.ReportsPublished,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airq_report",
			Name:      "reports_generated_total",
			Help:      "Reports produced, by outcome (live or mock fallback).",
		}, []string{"outcome"}),
		PipelineErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airq_report",
			Name:      "pipeline_errors_total",
			Help:      "Pipeline failures that triggered the mock fallback, by stage.",
		}, []string{"stage"}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "airq_report",
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of a complete acquire-read-reduce-classify cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		AcquisitionCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airq_report",
			Name:      "acquisition_cache_total",
			Help:      "Granule cache directory lookups by result (hit skips download).",
		}, []string{"result"}),
		GranulesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "airq_report",
			Name:      "granules_read_total",
			Help:      "Granule files opened and concatenated into datasets.",
		}),
		EarthdataAPI: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "airq_report",
			Name:      "earthdata_api_duration_seconds",
			Help:      "Earthdata request duration in seconds, by operation.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"op"}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "airq_report",
			Name:      "reports_published_total",
			Help:      "Report events published to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "airq_report",
			Name:      "publish_errors_total",
			Help:      "Report event publish failures (logged, never user-visible).",
		}),
	}
}
