package ingest

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError rejects a request before any side effect. Maps to
// HTTP 400.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid ingestion request: %s", e.Reason)
}

func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

// StorageWriteError aborts a run whose staging step failed. Maps to
// HTTP 503.
type StorageWriteError struct {
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("failed to stage modality files: %v", e.Err)
}

func (e *StorageWriteError) Unwrap() error {
	return e.Err
}

func (e *StorageWriteError) HTTPStatus() int {
	return http.StatusServiceUnavailable
}

// EmbeddingServiceError aborts a run whose embedding step failed, either
// because the upstream call failed or because the returned vector was
// unusable. Maps to HTTP 503.
type EmbeddingServiceError struct {
	Err error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("failed to compute embedding: %v", e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error {
	return e.Err
}

func (e *EmbeddingServiceError) HTTPStatus() int {
	return http.StatusServiceUnavailable
}

// PersistenceError aborts a run whose record write failed. Staged blobs
// are not rolled back; a retried run overwrites the same keys. Maps to
// HTTP 503.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist patient record: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) HTTPStatus() int {
	return http.StatusServiceUnavailable
}

// HTTPStatus maps a pipeline error to its response status. Unclassified
// errors map to 500.
func HTTPStatus(err error) int {
	var coded interface{ HTTPStatus() int }
	if errors.As(err, &coded) {
		return coded.HTTPStatus()
	}
	return http.StatusInternalServerError
}
