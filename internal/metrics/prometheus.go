package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realcheck_analyses_total",
			Help: "Total analyses by outcome",
		},
		[]string{"outcome"},
	)

	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "realcheck_analysis_duration_seconds",
			Help:    "End-to-end analysis duration in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
		},
	)

	OverallVerdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realcheck_overall_verdicts_total",
			Help: "Overall article classifications",
		},
		[]string{"overall"},
	)

	ClaimVerdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realcheck_claim_verdicts_total",
			Help: "Per-claim evidence verdicts",
		},
		[]string{"verdict"},
	)

	AIScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "realcheck_ai_score",
			Help:    "Document AI-authorship probability",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	SearchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realcheck_search_requests_total",
			Help: "Web search calls by provider and status",
		},
		[]string{"provider", "status"},
	)

	ClassifierRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realcheck_classifier_requests_total",
			Help: "Authorship classifier calls by provider and status",
		},
		[]string{"provider", "status"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realcheck_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realcheck_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	ReportsStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realcheck_reports_stored_total",
			Help: "Reports persisted by backend",
		},
		[]string{"backend"},
	)
)

var initOnce sync.Once

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(AnalysesTotal)
		prometheus.MustRegister(AnalysisDuration)
		prometheus.MustRegister(OverallVerdicts)
		prometheus.MustRegister(ClaimVerdicts)
		prometheus.MustRegister(AIScore)
		prometheus.MustRegister(SearchRequests)
		prometheus.MustRegister(ClassifierRequests)
		prometheus.MustRegister(CacheHits)
		prometheus.MustRegister(CacheMisses)
		prometheus.MustRegister(ReportsStored)
	})
}

// Status maps an error to the status label used by request counters
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
