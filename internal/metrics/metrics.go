package metrics

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "eventregistry"
)

// Metrics holds all application metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Database pool metrics
	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBConnectionsIdle  prometheus.Gauge

	// Allocation metrics
	NumbersAssignedTotal     *prometheus.CounterVec
	EvictionsTotal           prometheus.Counter
	AllocationExhaustedTotal prometheus.Counter
	AllocationRetriesTotal   prometheus.Counter
	NumberConflicts          *prometheus.GaugeVec

	// Email metrics
	EmailsSentTotal *prometheus.CounterVec

	logger *slog.Logger
}

// NewWithRegistry creates and registers all metrics with a custom registry.
func NewWithRegistry(registerer prometheus.Registerer, logger *slog.Logger) *Metrics {
	factory := promauto.With(registerer)
	if logger == nil {
		logger = slog.Default()
	}

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "endpoint"},
		),

		DBConnectionsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Current number of open database connections",
		}),
		DBConnectionsInUse: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_in_use",
			Help:      "Current number of in-use database connections",
		}),
		DBConnectionsIdle: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Current number of idle database connections",
		}),

		NumbersAssignedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "numbers_assigned_total",
				Help:      "Participant numbers written to registrants, by resolution strategy",
			},
			[]string{"strategy"},
		),
		EvictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Registrants moved off a number claimed by a fixed binding",
		}),
		AllocationExhaustedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocation_exhausted_total",
			Help:      "Operations rejected because an event had no free number",
		}),
		AllocationRetriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocation_retries_total",
			Help:      "Allocation transactions retried after a concurrent number conflict",
		}),
		NumberConflicts: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "number_conflicts",
				Help:      "Latent number conflicts found by the last audit run, by kind",
			},
			[]string{"kind"},
		),

		EmailsSentTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "emails_sent_total",
				Help:      "Emails handed to the mailer, by template and result",
			},
			[]string{"template", "result"},
		),

		logger: logger,
	}
}

// safeExecute wraps metric operations with panic recovery and tolerates a nil receiver.
func (m *Metrics) safeExecute(operation string, fn func()) {
	if m == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("panic in metrics operation", "operation", operation, "panic", r)
		}
	}()
	fn()
}
