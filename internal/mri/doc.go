// Package mri holds the core domain types shared across the ingestion
// pipeline: the closed set of MRI modality keys, modality-to-storage-key
// reference maps, clinical metadata and similarity results.
//
// The modality key set is a closed enumeration (t1c, t1n, t2f, t2w, seg).
// Adding a modality requires updating the embedding service contract in
// lockstep, so the set is defined in exactly one place.
package mri
