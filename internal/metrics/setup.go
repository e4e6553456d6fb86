package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics encapsulates the Prometheus registry and the HTTP server that
// exposes it. Each process maintains its own isolated registry to prevent
// metric name collisions.
type Metrics struct {
	// Server defines the HTTP server used to expose the /metrics endpoint.
	Server *http.Server

	// Registry is the Prometheus registry where all metrics are registered.
	Registry *prometheus.Registry

	// Ingestion pipeline metrics
	ingestionsTotal   *prometheus.CounterVec
	stageDuration     *prometheus.HistogramVec
	searchDegraded    prometheus.Counter
	orphanedBlobs     prometheus.Counter
	httpRequestsTotal *prometheus.CounterVec
}

// NewMetrics sets up a dedicated Prometheus registry, registers the
// pipeline collectors, wraps everything with a constant `service` label
// and creates the HTTP server exposing the /metrics endpoint.
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	// All metrics emitted by this service automatically include the label
	// service="<cfg.ServiceName>".
	wrappedRegistry := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	m := &Metrics{
		Registry: registry,
	}

	m.ingestionsTotal = createCounterVec("ingestions_total",
		"Total number of ingestion pipeline runs", []string{"operation", "status"})
	m.stageDuration = createHistogramVec("ingestion_stage_duration_seconds",
		"Duration of individual ingestion pipeline stages in seconds", []string{"stage"}, prometheus.DefBuckets)
	m.searchDegraded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "similarity_search_degraded_total",
		Help: "Number of ingestions or retrievals that proceeded with an empty similarity list after an index failure",
	})
	m.orphanedBlobs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orphaned_blobs_total",
		Help: "Number of staged objects left behind by aborted ingestions",
	})
	m.httpRequestsTotal = createCounterVec("http_requests_total",
		"Total number of handled HTTP requests", []string{"route", "status"})

	wrappedRegistry.MustRegister(
		m.ingestionsTotal,
		m.stageDuration,
		m.searchDegraded,
		m.orphanedBlobs,
		m.httpRequestsTotal,
	)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: handler,
	}

	return m
}
