// Package tracer provides distributed tracing for the simri service,
// built on OpenTelemetry.
//
// It wraps the OpenTelemetry tracer provider behind a small method set
// (StartSpan, RecordErrorOnSpan, SetAttributes, SetCarrierOnContext) so
// the HTTP surface and the ingestion pipeline can create spans without
// depending on the SDK directly. Span export over OTLP/HTTP is opt-in;
// without it spans still propagate through contexts but are never sent
// anywhere, which keeps local development and tests collector-free.
//
// The FXModule provides the tracer to the fx container and registers a
// shutdown hook that flushes pending spans.
package tracer
