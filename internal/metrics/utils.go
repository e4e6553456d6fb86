package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ObserveIngestion counts one completed pipeline run.
// Example: metrics.ObserveIngestion("created", "success")
func (m *Metrics) ObserveIngestion(operation, status string) {
	m.ingestionsTotal.WithLabelValues(operation, status).Inc()
}

// ObserveStageDuration records how long a pipeline stage took.
// Example: defer metrics.ObserveStageDuration(time.Now(), "staging")
func (m *Metrics) ObserveStageDuration(start time.Time, stage string) {
	duration := time.Since(start).Seconds()
	m.stageDuration.WithLabelValues(stage).Observe(duration)
}

// ObserveSearchDegraded counts one degraded (empty-on-failure) similarity
// lookup.
func (m *Metrics) ObserveSearchDegraded() {
	m.searchDegraded.Inc()
}

// ObserveOrphanedBlobs counts objects left behind by an aborted ingestion.
func (m *Metrics) ObserveOrphanedBlobs(count int) {
	m.orphanedBlobs.Add(float64(count))
}

// ObserveHTTPRequest counts one handled HTTP request.
func (m *Metrics) ObserveHTTPRequest(route, status string) {
	m.httpRequestsTotal.WithLabelValues(route, status).Inc()
}

func createCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: name,
			Help: help,
		},
		labels,
	)
}

func createHistogramVec(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    name,
			Help:    help,
			Buckets: buckets,
		},
		labels,
	)
}
