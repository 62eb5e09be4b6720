package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation Prometheus metrics.
var (
	ScoringDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recserve",
			Name:      "scoring_duration_seconds",
			Help:      "Candidate scoring duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"model"},
	)

	CandidateSetSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recserve",
			Name:      "candidate_set_size",
			Help:      "Number of unseen items scored per request",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
		},
		[]string{"model"},
	)

	RecommendErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recserve",
			Name:      "recommend_errors_total",
			Help:      "Failed recommendation requests by error type",
		},
		[]string{"model", "error_type"},
	)

	RecommendCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recserve",
			Name:      "recommend_cache_total",
			Help:      "Recommendation cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	FeatureOutOfRangeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recserve",
			Name:      "feature_out_of_range_total",
			Help:      "Categorical user features left as a zero block",
		},
		[]string{"field"},
	)

	ArtifactItems = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "recserve",
			Name:      "artifact_items",
			Help:      "Size of the loaded item universe per model",
		},
		[]string{"model"},
	)
)

var recMetricsRegistered bool

// RegisterRecommendMetrics registers Prometheus recommendation metrics. Must be called once from main.
func RegisterRecommendMetrics() {
	if recMetricsRegistered {
		return
	}
	prometheus.MustRegister(ScoringDuration)
	prometheus.MustRegister(CandidateSetSize)
	prometheus.MustRegister(RecommendErrorsTotal)
	prometheus.MustRegister(RecommendCacheTotal)
	prometheus.MustRegister(FeatureOutOfRangeTotal)
	prometheus.MustRegister(ArtifactItems)
	recMetricsRegistered = true
}
