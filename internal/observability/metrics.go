package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flos"

// Cycle outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Metrics holds the Prometheus collectors for the ingestion pipeline.
type Metrics struct {
	CyclesTotal     *prometheus.CounterVec // labels: outcome={success,failed}
	RecordsAdded    prometheus.Counter
	RecordsUpdated  prometheus.Counter
	Candidates      *prometheus.CounterVec // labels: source
	SourceErrors    *prometheus.CounterVec // labels: source
	CycleDuration   prometheus.Histogram
	LastSuccessTime prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Ingestion cycles by outcome.",
		}, []string{"outcome"}),
		RecordsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_added_total",
			Help:      "Status reports inserted by committed cycles.",
		}),
		RecordsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_updated_total",
			Help:      "Status reports updated by committed cycles.",
		}),
		Candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Candidate records extracted, by source.",
		}, []string{"source"}),
		SourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_errors_total",
			Help:      "Sources that could not be read, by source.",
		}, []string{"source"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete extract-reconcile cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LastSuccessTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last committed cycle.",
		}),
	}
}

// NewMetrics creates all pipeline metrics and registers them with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CyclesTotal,
		m.RecordsAdded,
		m.RecordsUpdated,
		m.Candidates,
		m.SourceErrors,
		m.CycleDuration,
		m.LastSuccessTime,
	)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
