// Package blobstore implements the gateway to the MinIO/S3-compatible
// object store that holds the raw MRI modality files.
//
// The gateway owns three concerns:
//
//   - Deterministic key construction: a modality file for a patient always
//     lands in the same storage slot (patients/{patientId}/{modality}-{file}),
//     so re-uploading a case overwrites rather than accumulates.
//   - Object operations: Put, Get and Delete against the configured bucket.
//     Put calls for distinct keys are safe to run concurrently.
//   - Presigned retrieval: SignedGet issues a time-limited download URL for
//     a stored reference, and deliberately returns an empty URL (not an
//     error) for an empty reference so callers can render a placeholder.
//
// The configured bucket is verified (and created if missing) when the
// gateway is constructed, so later object operations can assume it exists.
//
// Basic usage:
//
//	gw, err := blobstore.NewGateway(cfg, log)
//	if err != nil {
//		return err
//	}
//	key := blobstore.ObjectKey("P-100", "t1c", "scan t1c.nii.gz")
//	ref, err := gw.Put(ctx, key, file, size, "application/gzip")
//
// Thread safety: all methods on Gateway are safe for concurrent use.
package blobstore
