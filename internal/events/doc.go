// Package events publishes pipeline lifecycle events to RabbitMQ.
//
// Two event kinds are emitted: ingestion.completed after a successful
// pipeline run, and blob.orphaned for objects staged by an aborted run.
// Publishing is best-effort: failures are logged and never propagate into
// the ingestion pipeline, and the whole publisher can be disabled through
// configuration for deployments without a broker.
package events
