package embedding

import "fmt"

// ServiceError reports a failed embedding attempt: an unreachable service,
// a non-2xx upstream status, or a malformed response payload. It carries
// the upstream status and body so the caller can surface enough detail to
// decide whether to resubmit.
type ServiceError struct {
	// Status is the upstream HTTP status code, or 0 when the request never
	// produced a response.
	Status int

	// Body is the upstream response body, when one was received.
	Body string

	// Err is the underlying cause, when the failure was not an HTTP status.
	Err error
}

func (e *ServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("embedding service returned status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("embedding service call failed: %v", e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
