// Package observability provides structured logging and Prometheus
// metrics.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Fetch metrics
	RowsFetched    *prometheus.CounterVec
	RowsStored     *prometheus.CounterVec
	RowsDuplicated *prometheus.CounterVec
	FetchErrors    *prometheus.CounterVec
	FetchDuration  *prometheus.HistogramVec

	// Export metrics
	TransactionsNormalized *prometheus.CounterVec
	LedgerRowsExported     prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "cryptofolio"
	}

	return &Metrics{
		RowsFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "rows_fetched_total",
			Help:      "Total number of raw rows retrieved by exchange",
		}, []string{"exchange"}),
		RowsStored: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "rows_stored_total",
			Help:      "Total number of raw rows newly stored by exchange",
		}, []string{"exchange"}),
		RowsDuplicated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "rows_duplicated_total",
			Help:      "Total number of already-stored rows skipped by exchange",
		}, []string{"exchange"}),
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "errors_total",
			Help:      "Total number of fetch failures by exchange",
		}, []string{"exchange"}),
		FetchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Fetch duration in seconds by exchange",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"exchange"}),

		TransactionsNormalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "transactions_normalized_total",
			Help:      "Total number of canonical transactions produced by exchange",
		}, []string{"exchange"}),
		LedgerRowsExported: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "ledger_rows_total",
			Help:      "Total number of ledger rows exported",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordFetch records the outcome of one exchange fetch.
func RecordFetch(exchange string, stored, duplicates int, seconds float64, err error) {
	if err != nil {
		DefaultMetrics.FetchErrors.WithLabelValues(exchange).Inc()
		return
	}
	DefaultMetrics.RowsFetched.WithLabelValues(exchange).Add(float64(stored + duplicates))
	DefaultMetrics.RowsStored.WithLabelValues(exchange).Add(float64(stored))
	DefaultMetrics.RowsDuplicated.WithLabelValues(exchange).Add(float64(duplicates))
	DefaultMetrics.FetchDuration.WithLabelValues(exchange).Observe(seconds)
}

// RecordNormalized records canonical transactions produced for an exchange.
func RecordNormalized(exchange string, count int) {
	DefaultMetrics.TransactionsNormalized.WithLabelValues(exchange).Add(float64(count))
}

// RecordLedgerRows records exported ledger rows.
func RecordLedgerRows(count int) {
	DefaultMetrics.LedgerRowsExported.Add(float64(count))
}
