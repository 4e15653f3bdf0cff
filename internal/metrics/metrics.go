package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache outcomes recorded on DashboardBuilds.
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheBypass = "bypass"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salesmonitor_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route pattern and status code",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	DashboardBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesmonitor_dashboard_builds_total",
			Help: "Dashboard summaries served, by cache outcome",
		},
		[]string{"cache"},
	)

	StoreImportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesmonitor_store_import_rows_total",
			Help: "Store import rows processed, by outcome",
		},
		[]string{"format", "outcome"},
	)

	SaleToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesmonitor_sale_toggles_total",
			Help: "Checklist toggles, by resulting state",
		},
		[]string{"checked"},
	)
)
