package httpapi

import (
	"context"
	"time"

	traceSpan "go.opentelemetry.io/otel/trace"

	"github.com/simri/simri/internal/ingest"
	"github.com/simri/simri/internal/patientstore"
)

// Logger defines the logging operations the server needs. Any compatible
// structured logger can be injected.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Ingestor runs the ingestion pipeline and the removal flow. Satisfied
// by *ingest.Service.
type Ingestor interface {
	Ingest(ctx context.Context, req ingest.Request) (*ingest.Result, error)
	Remove(ctx context.Context, patientID string) error
}

// RecordReader serves the read path. Satisfied by *patientstore.Store.
type RecordReader interface {
	GetByPublicID(ctx context.Context, publicID string) (*patientstore.PatientRecord, error)
	List(ctx context.Context, q patientstore.ListQuery) (*patientstore.ListResult, error)
}

// URLSigner turns storage references into short-lived download URLs.
// Satisfied by *blobstore.Gateway. A zero ttl uses the signer's default
// expiry; an empty reference yields ("", nil).
type URLSigner interface {
	SignedGet(ctx context.Context, reference string, ttl time.Duration) (string, error)
}

// Observer counts handled requests. Satisfied by *metrics.Metrics.
type Observer interface {
	ObserveHTTPRequest(route, status string)
}

// Tracer opens one span per handled request and joins incoming W3C
// trace contexts. Satisfied by *tracer.Tracer.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, traceSpan.Span)
	RecordErrorOnSpan(span traceSpan.Span, err error)
	SetAttributes(span traceSpan.Span, attrs map[string]interface{})
	SetCarrierOnContext(ctx context.Context, carrier map[string]string) context.Context
}
