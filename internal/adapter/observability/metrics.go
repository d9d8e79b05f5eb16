package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider and operation",
		},
		[]string{"provider", "operation"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "operation"},
	)

	InterviewsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interviews_started_total",
			Help: "Total number of interviews started",
		},
	)
	InterviewsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interviews_completed_total",
			Help: "Total number of interviews completed",
		},
	)
	InterviewsCancelledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interviews_cancelled_total",
			Help: "Total number of interviews cancelled",
		},
	)

	// NormalizerFallbackTotal tracks which stage of the parser chain produced
	// the displayed text; a rising "verbatim" share means the model is drifting
	// away from the requested JSON schema.
	NormalizerFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "normalizer_fallback_total",
			Help: "Model output normalizations by winning parser stage",
		},
		[]string{"stage"},
	)

	// Evaluation outcome distributions
	OverallScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evaluation_overall_score",
			Help:    "Distribution of overall evaluation scores ([0,100])",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
	RecommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluation_recommendations_total",
			Help: "Total evaluations by recommendation",
		},
		[]string{"recommendation"},
	)
)

// InitMetrics registers all metrics with the default registry. Call once per
// process.
func InitMetrics() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AIRequestsTotal,
		AIRequestDuration,
		InterviewsStartedTotal,
		InterviewsCompletedTotal,
		InterviewsCancelledTotal,
		NormalizerFallbackTotal,
		OverallScoreHistogram,
		RecommendationsTotal,
	)
}
