package ingest

import (
	"os"
	"strconv"
)

// Config tunes the ingestion pipeline.
type Config struct {
	// RequireAllModalities makes a fresh upload fail validation when a
	// required modality file is absent. When false, absent modalities are
	// logged and stored with null references; the embedding service
	// applies its own deterministic fallback for them.
	RequireAllModalities bool

	// SimilarLimit is the number of similar cases cached on the record at
	// ingestion time.
	SimilarLimit int
}

const defaultSimilarLimit = 5

// NewConfig reads the pipeline configuration from environment variables.
func NewConfig() Config {
	similarLimit := defaultSimilarLimit
	if v := os.Getenv("INGEST_SIMILAR_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			similarLimit = n
		}
	}

	return Config{
		RequireAllModalities: os.Getenv("INGEST_REQUIRE_ALL_MODALITIES") == "true",
		SimilarLimit:         similarLimit,
	}
}
