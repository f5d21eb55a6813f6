// Package metrics provides Prometheus instrumentation for petmint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enabled     bool
	serviceName string

	// HTTP metrics
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	// Pet domain metrics
	petsMintedTotal  *prometheus.CounterVec
	petsMergedTotal  *prometheus.CounterVec
	petsDeletedTotal *prometheus.CounterVec

	// Market domain metrics
	marketListingsTotal *prometheus.CounterVec
	marketSalesTotal    *prometheus.CounterVec

	// Payment verification metrics
	paymentVerifyTotal *prometheus.CounterVec
)

// Init initializes the metrics system.
func Init(enabledFlag bool, svcName string) {
	enabled = enabledFlag
	serviceName = svcName

	if !enabled {
		return
	}

	// HTTP request counter
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration histogram
	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Pet mint counter
	petsMintedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pets_minted_total",
			Help: "Total number of pets minted",
		},
		[]string{"status"},
	)

	// Pet merge counter
	petsMergedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pets_merged_total",
			Help: "Total number of pet merges",
		},
		[]string{"status"},
	)

	// Pet delete counter
	petsDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pets_deleted_total",
			Help: "Total number of pets retired",
		},
		[]string{"status"},
	)

	// Market listing counter
	marketListingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_listings_total",
			Help: "Total number of market listing changes",
		},
		[]string{"action", "status"},
	)

	// Market sale counter
	marketSalesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_sales_total",
			Help: "Total number of settled purchases",
		},
		[]string{"status"},
	)

	// Payment verification counter
	paymentVerifyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verify_total",
			Help: "Total number of payment verification attempts",
		},
		[]string{"kind", "result"},
	)

	// Note: Go runtime metrics (goroutines, memory, GC) are automatically
	// collected by prometheus/client_golang - no custom collector needed
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	if !enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.Handler()
}

// Enabled returns whether metrics are enabled.
func Enabled() bool {
	return enabled
}

// ServiceName returns the configured service name for metric labels.
func ServiceName() string {
	return serviceName
}
