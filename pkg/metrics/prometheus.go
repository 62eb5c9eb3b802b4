package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	FetchRuns      *prometheus.CounterVec
	RowsProcessed  *prometheus.CounterVec
	ProcessingTime prometheus.Histogram
	ErrorsCount    *prometheus.CounterVec
	TasksRetried   prometheus.Counter
}

// NewMetrics creates new prometheus metrics registered on reg
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FetchRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_runs_total",
			Help:      "The total number of finished fetch attempts by status",
		}, []string{"status"}),
		RowsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_processed_total",
			Help:      "The total number of roster rows handled by outcome",
		}, []string{"outcome"}),
		ProcessingTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time taken by a single fetch attempt",
			Buckets:   prometheus.DefBuckets,
		}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
		TasksRetried: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_retried_total",
			Help:      "The total number of task attempts scheduled for retry",
		}),
	}
}

// ObserveRun records the outcome of one fetch attempt. Safe on a nil receiver.
func (m *Metrics) ObserveRun(status string, seconds float64, created, updated, failed, skipped int) {
	if m == nil {
		return
	}
	m.FetchRuns.WithLabelValues(status).Inc()
	m.ProcessingTime.Observe(seconds)
	m.RowsProcessed.WithLabelValues("created").Add(float64(created))
	m.RowsProcessed.WithLabelValues("updated").Add(float64(updated))
	m.RowsProcessed.WithLabelValues("failed").Add(float64(failed))
	m.RowsProcessed.WithLabelValues("skipped").Add(float64(skipped))
}

// IncError counts an error for operation. Safe on a nil receiver.
func (m *Metrics) IncError(operation string) {
	if m == nil {
		return
	}
	m.ErrorsCount.WithLabelValues(operation).Inc()
}

// IncRetry counts a scheduled retry. Safe on a nil receiver.
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.TasksRetried.Inc()
}
