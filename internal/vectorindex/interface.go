package vectorindex

import "context"

// Match is one nearest-neighbor result: a stored case and its similarity
// score. Scores are opaque values of the underlying ranking function; only
// their relative (descending) order is guaranteed.
type Match struct {
	ID    string
	Score float32
}

// Index is the capability interface for vector similarity search.
// The ingestion pipeline depends only on this contract, so the Qdrant
// implementation can be swapped for any ANN library or a brute-force scan
// for small corpora.
type Index interface {
	// EnsureReady prepares the underlying index (creates the collection if
	// missing). Safe to call multiple times.
	EnsureReady(ctx context.Context) error

	// Upsert stores or replaces the embedding of one case.
	Upsert(ctx context.Context, patientID string, vector []float32) error

	// Query returns up to limit stored cases ranked by descending
	// similarity to the given vector. The result may include the query
	// case itself; callers that need self-exclusion use Searcher.
	Query(ctx context.Context, vector []float32, limit int) ([]Match, error)

	// Delete removes the embeddings of the given cases.
	Delete(ctx context.Context, patientIDs []string) error
}
