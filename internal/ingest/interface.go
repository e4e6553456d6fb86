package ingest

import (
	"context"
	"io"
	"time"

	traceSpan "go.opentelemetry.io/otel/trace"

	"github.com/simri/simri/internal/mri"
	"github.com/simri/simri/internal/patientstore"
)

// Logger defines the logging operations the pipeline needs. Any
// compatible structured logger can be injected.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// BlobGateway stages and removes modality files. Satisfied by
// *blobstore.Gateway.
type BlobGateway interface {
	Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, objectKey string) error
	Bucket() string
}

// Embedder turns staged modality references into a fixed-length vector.
// Satisfied by *embedding.Client.
type Embedder interface {
	Embed(ctx context.Context, patientID, bucket string, refs mri.ModalityRefs) ([]float32, error)
}

// SimilaritySearcher resolves the nearest cases for a vector, excluding
// the case itself. Satisfied by *vectorindex.Searcher.
type SimilaritySearcher interface {
	FindSimilar(ctx context.Context, vector []float32, excludeID string, limit int) (results []mri.SimilarPatient, degraded bool)
}

// VectorIndex receives the ingested vector for future searches and
// drops it again on removal. Satisfied by *vectorindex.QdrantIndex.
type VectorIndex interface {
	Upsert(ctx context.Context, patientID string, vector []float32) error
	Delete(ctx context.Context, patientIDs []string) error
}

// RecordStore persists the patient record. Satisfied by
// *patientstore.Store.
type RecordStore interface {
	Upsert(ctx context.Context, record *patientstore.PatientRecord) (created bool, err error)
	GetByPublicID(ctx context.Context, publicID string) (*patientstore.PatientRecord, error)
	Delete(ctx context.Context, patientID string) (found bool, err error)
}

// Observer receives pipeline metrics. Satisfied by *metrics.Metrics.
type Observer interface {
	ObserveIngestion(operation, status string)
	ObserveStageDuration(start time.Time, stage string)
	ObserveSearchDegraded()
	ObserveOrphanedBlobs(count int)
}

// Tracer opens spans around the pipeline stages. Satisfied by
// *tracer.Tracer.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, traceSpan.Span)
	RecordErrorOnSpan(span traceSpan.Span, err error)
	SetAttributes(span traceSpan.Span, attrs map[string]interface{})
}
