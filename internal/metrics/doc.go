// Package metrics exposes the service's Prometheus metrics.
//
// Each process owns an isolated registry served on its own HTTP listener
// (default :9090). The package registers the ingestion pipeline counters
// and offers helpers for ad-hoc collectors.
package metrics
