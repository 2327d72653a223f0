package queue

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the rule queue.
type Metrics struct {
	JobsQueued    prometheus.Counter
	JobsCompleted prometheus.Counter
	JobsFailed    prometheus.Counter
	JobsInFlight  prometheus.Gauge
	JobDuration   prometheus.Histogram
}

// NewMetrics creates the queue collectors and registers them with the given
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		JobsQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "metaforge_queue_jobs_queued_total",
			Help: "Jobs admitted to the rule queue.",
		}),
		JobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "metaforge_queue_jobs_completed_total",
			Help: "Jobs that finished successfully.",
		}),
		JobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "metaforge_queue_jobs_failed_total",
			Help: "Jobs that failed permanently.",
		}),
		JobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "metaforge_queue_jobs_in_flight",
			Help: "Jobs currently being processed (0 or 1).",
		}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "metaforge_queue_job_duration_seconds",
			Help:    "Wall-clock duration of job processing.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
	reg.MustRegister(m.JobsQueued, m.JobsCompleted, m.JobsFailed, m.JobsInFlight, m.JobDuration)
	return m
}
