// Package ingest orchestrates the ingestion pipeline for a patient case.
//
// A run moves through Validating, Staging, Embedding, SimilaritySearch and
// Persisting before reaching Done; any step except SimilaritySearch can
// abort the run with a typed pipeline error. SimilaritySearch is
// best-effort and degrades to an empty list. Once staging has begun the
// pipeline runs on a detached context so a dropped client connection
// cannot leave half of a case behind.
package ingest
