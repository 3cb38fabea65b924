package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts total requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration measures request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// OperationsTotal counts data source operations by outcome.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasource_operations_total",
			Help: "Total number of data source operations",
		},
		[]string{"operation", "result"},
	)

	// OperationDuration measures data source operation duration.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datasource_operation_duration_seconds",
			Help:    "Data source operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	// BatchItemsTotal counts items processed by batch operations.
	BatchItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasource_batch_items_total",
			Help: "Total number of items processed by batch operations",
		},
		[]string{"operation", "result"},
	)

	// CacheRequestsTotal counts data source cache lookups.
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasource_cache_requests_total",
			Help: "Total number of data source cache lookups",
		},
		[]string{"result"},
	)

	// EventsPublishedTotal counts published domain events.
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasource_events_published_total",
			Help: "Total number of published domain events",
		},
		[]string{"event_type", "result"},
	)

	// CircuitBreakerState tracks circuit breaker state (0=closed, 1=half-open, 2=open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// Result labels
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// ObserveOperation 记录一次操作的结果和耗时
func ObserveOperation(operation string, start time.Time, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	OperationsTotal.WithLabelValues(operation, result).Inc()
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveBatch 记录批量操作的逐项结果
func ObserveBatch(operation string, succeeded, failed int) {
	BatchItemsTotal.WithLabelValues(operation, ResultSuccess).Add(float64(succeeded))
	BatchItemsTotal.WithLabelValues(operation, ResultError).Add(float64(failed))
}
