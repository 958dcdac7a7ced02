package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScanDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keywordpulse_scan_duration_seconds",
			Help:    "End-to-end scan duration in seconds",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"sort"},
	)

	ScanTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keywordpulse_scan_total",
			Help: "Total number of scans processed",
		},
		[]string{"status"},
	)

	PagesFetched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keywordpulse_pages_fetched_total",
			Help: "Total source pages fetched",
		},
	)

	ItemsExamined = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keywordpulse_items_examined_total",
			Help: "Total raw items examined during crawls",
		},
	)

	ItemsAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keywordpulse_items_accepted_total",
			Help: "Total items accepted into the scoring pipeline",
		},
	)

	DuplicatesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keywordpulse_duplicates_skipped_total",
			Help: "Total duplicate identifiers skipped by the crawler",
		},
	)

	RateLimitHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keywordpulse_rate_limit_hits_total",
			Help: "Total throttling responses from the source",
		},
	)

	ScoringDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "keywordpulse_scoring_duration_seconds",
			Help:    "Per-item scoring duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1},
		},
	)

	FilterDrops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keywordpulse_filter_drops_total",
			Help: "Items dropped by each filter predicate",
		},
		[]string{"predicate"},
	)

	ExportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keywordpulse_export_duration_seconds",
			Help:    "Export write duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"format"},
	)

	ActiveScans = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "keywordpulse_active_scans",
			Help: "Number of scans currently running",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keywordpulse_cache_hits_total",
			Help: "Total page cache hits",
		},
		[]string{"cache_type"},
	)
)

func Init() {
	prometheus.MustRegister(ScanDuration)
	prometheus.MustRegister(ScanTotal)
	prometheus.MustRegister(PagesFetched)
	prometheus.MustRegister(ItemsExamined)
	prometheus.MustRegister(ItemsAccepted)
	prometheus.MustRegister(DuplicatesSkipped)
	prometheus.MustRegister(RateLimitHits)
	prometheus.MustRegister(ScoringDuration)
	prometheus.MustRegister(FilterDrops)
	prometheus.MustRegister(ExportDuration)
	prometheus.MustRegister(ActiveScans)
	prometheus.MustRegister(CacheHits)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
