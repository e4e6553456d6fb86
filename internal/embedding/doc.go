// Package embedding provides the client for the external model service
// that turns a set of staged MRI modality files into a fixed-length
// embedding vector.
//
// The package is layered the same way as the rest of the service clients:
// a public Client facade hides the inference provider (endpoint, HTTP,
// payload shape) from the application layer.
//
// Contract with the model service:
//
//   - One POST to {endpoint}/embed per case, carrying the patient id, the
//     storage bucket and the full set of required modality keys. Absent
//     modalities are sent as explicit nulls, never omitted, so the service
//     can substitute its deterministic fallback (e.g. a zero-filled tensor).
//   - The response must carry a numeric "embedding" array of the configured
//     dimension. Anything else (transport failure, non-2xx status, missing
//     or malformed field, wrong dimension) is a *ServiceError.
//
// A ServiceError is terminal for the ingestion attempt: the pipeline never
// retries automatically, it surfaces the failure to the caller who may
// resubmit the whole operation.
package embedding
