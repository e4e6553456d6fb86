// Package patientstore persists patient case documents in PostgreSQL.
//
// Each case is one row in patient_records; the document-shaped parts
// (clinical metadata, modality references, embedding, cached similarity
// list) live in jsonb columns so arbitrary clinical fields survive
// round-trip and the record keeps its document semantics.
//
// Writes go through a single-statement upsert
// (INSERT ... ON CONFLICT (patient_id) DO UPDATE) that replaces the whole
// document atomically: readers never observe a partially overwritten
// record and there are no partial-field update semantics. The statement
// reports whether it inserted or replaced, which the ingestion response
// surfaces as created/updated.
//
// The listing path supports the dashboard: case-insensitive substring
// match on public id and diagnosis, age range, exclusion of ids the
// client already fetched, and newest-first offset pagination. Records
// flagged as external samples stay out of default listings.
package patientstore
