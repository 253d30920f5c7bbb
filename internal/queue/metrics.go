package queue

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes worker counters for operational dashboards.
type Metrics struct {
	processed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	retried   *prometheus.CounterVec
	permanent *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amenpay_worker_tasks_processed_total",
			Help: "Tasks completed successfully.",
		}, []string{"queue", "type"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amenpay_worker_tasks_failed_total",
			Help: "Task attempts that returned an error.",
		}, []string{"queue", "type"}),
		retried: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amenpay_worker_tasks_retried_total",
			Help: "Tasks re-queued with backoff after a failed attempt.",
		}, []string{"queue", "type"}),
		permanent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amenpay_worker_tasks_failed_permanently_total",
			Help: "Tasks that exhausted their retry budget.",
		}, []string{"queue", "type"}),
	}
	reg.MustRegister(m.processed, m.failed, m.retried, m.permanent)
	return m
}

func (m *Metrics) TaskProcessed(queue, taskType string) {
	m.processed.WithLabelValues(queue, taskType).Inc()
}

func (m *Metrics) TaskFailed(queue, taskType string) {
	m.failed.WithLabelValues(queue, taskType).Inc()
}

func (m *Metrics) TaskRetried(queue, taskType string) {
	m.retried.WithLabelValues(queue, taskType).Inc()
}

func (m *Metrics) TaskFailedPermanently(queue, taskType string) {
	m.permanent.WithLabelValues(queue, taskType).Inc()
}
