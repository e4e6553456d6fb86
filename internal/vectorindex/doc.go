// Package vectorindex provides nearest-neighbor retrieval over stored case
// embeddings.
//
// It is split into a capability interface and one implementation:
//
//   - Index is the minimal contract the pipeline needs (readiness, point
//     upsert, raw top-K query). Any ANN library or a brute-force scan can
//     satisfy it without touching the orchestrator.
//   - QdrantIndex implements Index against a Qdrant collection, with the
//     collection bootstrapped to the configured embedding dimension.
//
// On top of the raw Index, Searcher applies the retrieval policy of the
// ingestion pipeline: over-fetch beyond the requested limit, drop the
// query case itself (the candidate set may contain it on re-ingestion),
// truncate to the limit. Searching broad before filtering is what
// guarantees a full result page even when the record itself ranks first.
//
// Similarity results are best-effort: when the index is unreachable or the
// collection is missing, Searcher degrades to an empty result instead of
// failing the caller.
package vectorindex
