package vectorindex

import (
	"context"
	"log"

	"github.com/simri/simri/internal/mri"
)

// Searcher applies the pipeline's retrieval policy on top of a raw Index:
// over-fetch, self-exclude, truncate.
type Searcher struct {
	index          Index
	candidateFloor int
}

// NewSearcher builds a Searcher over the given index. candidateFloor is the
// minimum candidate pool per query (0 applies no floor).
func NewSearcher(index Index, candidateFloor int) *Searcher {
	return &Searcher{index: index, candidateFloor: candidateFloor}
}

// NewSearcherFromConfig builds a Searcher using the configured candidate floor.
func NewSearcherFromConfig(index Index, cfg *Config) *Searcher {
	return NewSearcher(index, cfg.CandidateFloor)
}

// FindSimilar returns up to limit cases most similar to the given vector,
// never including excludeID.
//
// The candidate set may contain the query case itself when it was already
// stored (re-ingestion), so the query fetches more than limit candidates,
// filters out excludeID, then truncates. Filtering after the broad search
// is what keeps the result at full size even when the case ranks first.
//
// Similarity is best-effort: any index failure (unreachable service,
// missing collection) degrades to an empty result with degraded=true
// instead of an error. Results are never load-bearing for ingestion.
func (s *Searcher) FindSimilar(ctx context.Context, vector []float32, excludeID string, limit int) (results []mri.SimilarPatient, degraded bool) {
	if limit <= 0 {
		return []mri.SimilarPatient{}, false
	}

	fetch := limit + 1
	if fetch < s.candidateFloor {
		fetch = s.candidateFloor
	}

	matches, err := s.index.Query(ctx, vector, fetch)
	if err != nil {
		log.Printf("[VectorIndex] similarity search unavailable, degrading to empty result: %v", err)
		return []mri.SimilarPatient{}, true
	}

	results = make([]mri.SimilarPatient, 0, limit)
	for _, m := range matches {
		if m.ID == excludeID {
			continue
		}
		results = append(results, mri.SimilarPatient{PatientID: m.ID, Score: m.Score})
		if len(results) == limit {
			break
		}
	}

	return results, false
}
