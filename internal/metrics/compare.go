package metrics

import "github.com/prometheus/client_golang/prometheus"

// Namespace prefixes every autorovers metric.
const Namespace = "autorovers"

// Comparison, selection and catalog Prometheus metrics.
var (
	CompareRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "compare_runs_total",
			Help:      "Comparison runs by outcome",
		},
		[]string{"outcome"}, // "ok" / "insufficient" / "error"
	)

	CompareDropsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "compare_drops_total",
			Help:      "Vehicles dropped from a comparison",
		},
		[]string{"cause"}, // "fetch" / "normalize" / "type-mismatch"
	)

	CompareDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "compare_duration_seconds",
			Help:      "Comparison run duration including catalog fetches",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	SelectionMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "selection_mutations_total",
			Help:      "Compare selection mutations by operation and result",
		},
		[]string{"op", "result"}, // result: "applied" / rejection reason / "error"
	)

	CatalogRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "catalog_requests_total",
			Help:      "Requests to the upstream catalog API",
		},
		[]string{"endpoint", "status"},
	)

	CatalogCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "catalog_cache_total",
			Help:      "Catalog detail cache lookups",
		},
		[]string{"result"}, // "hit" / "miss" / "stale"
	)

	CatalogRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "catalog_request_duration_seconds",
			Help:      "Upstream catalog request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)
)

var compareMetricsRegistered bool

// RegisterCompareMetrics registers the comparison metrics. Must be called once from main.
func RegisterCompareMetrics() {
	if compareMetricsRegistered {
		return
	}
	prometheus.MustRegister(CompareRunsTotal)
	prometheus.MustRegister(CompareDropsTotal)
	prometheus.MustRegister(CompareDuration)
	prometheus.MustRegister(SelectionMutationsTotal)
	prometheus.MustRegister(CatalogRequestsTotal)
	prometheus.MustRegister(CatalogRequestDuration)
	prometheus.MustRegister(CatalogCacheTotal)
	compareMetricsRegistered = true
}
