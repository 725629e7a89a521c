// Package metrics provides Prometheus metrics for redisom
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the query engine
type Metrics struct {
	// Compilation metrics
	QueriesCompiledTotal *prometheus.CounterVec
	CompileErrorsTotal   *prometheus.CounterVec

	// Execution metrics
	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration *prometheus.HistogramVec
	RowsReturnedTotal prometheus.Counter

	// Probabilistic dispatch
	DispatchTotal *prometheus.CounterVec

	// Intent cache
	IntentCacheTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer creates collectors without registering them.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.QueriesCompiledTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redisom_queries_compiled_total",
			Help: "Total number of compiled queries by source",
		},
		[]string{"source"},
	)

	m.CompileErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redisom_compile_errors_total",
			Help: "Total number of compilation failures by source",
		},
		[]string{"source"},
	)

	m.ExecutionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redisom_query_executions_total",
			Help: "Total number of backend commands issued",
		},
		[]string{"command", "status"},
	)

	m.ExecutionDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redisom_query_duration_seconds",
			Help:    "Duration of backend commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	m.RowsReturnedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "redisom_rows_returned_total",
			Help: "Total number of rows decoded from search replies",
		},
	)

	m.DispatchTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redisom_probabilistic_dispatch_total",
			Help: "Total number of methods routed to probabilistic structures",
		},
		[]string{"kind"},
	)

	m.IntentCacheTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redisom_intent_cache_total",
			Help: "Method intent cache lookups by result",
		},
		[]string{"result"},
	)

	return m
}

// RecordCompile records a compilation attempt
func (m *Metrics) RecordCompile(source string, err error) {
	if err != nil {
		m.CompileErrorsTotal.WithLabelValues(source).Inc()
		return
	}
	m.QueriesCompiledTotal.WithLabelValues(source).Inc()
}

// RecordExecution records a backend command with its outcome
func (m *Metrics) RecordExecution(command string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ExecutionsTotal.WithLabelValues(command, status).Inc()
	m.ExecutionDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordRows adds decoded rows
func (m *Metrics) RecordRows(n int) {
	m.RowsReturnedTotal.Add(float64(n))
}

// RecordDispatch records a probabilistic dispatch by structure kind
func (m *Metrics) RecordDispatch(kind string) {
	m.DispatchTotal.WithLabelValues(kind).Inc()
}

// RecordIntentCache records an intent cache hit or miss
func (m *Metrics) RecordIntentCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.IntentCacheTotal.WithLabelValues(result).Inc()
}
