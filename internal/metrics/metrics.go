package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the scanner's Prometheus instruments
type Metrics struct {
	ScansTotal        prometheus.Counter
	SignalsEmitted    *prometheus.CounterVec
	FilteredTotal     *prometheus.CounterVec
	DetectionsPerScan prometheus.Histogram
	EvalDuration      prometheus.Histogram
}

// New registers the scanner metrics on the given registerer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ScansTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "scanner",
			Name:      "scans_total",
			Help:      "Total symbol evaluations performed",
		}),
		SignalsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scanner",
			Name:      "signals_emitted_total",
			Help:      "Accepted signals by opportunity type",
		}, []string{"opportunity_type"}),
		FilteredTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scanner",
			Name:      "evaluations_filtered_total",
			Help:      "Filtered evaluations by reason",
		}, []string{"reason"}),
		DetectionsPerScan: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scanner",
			Name:      "detections_per_scan",
			Help:      "Detector matches per evaluation",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 7},
		}),
		EvalDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scanner",
			Name:      "evaluation_duration_seconds",
			Help:      "Wall time of one symbol evaluation",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
