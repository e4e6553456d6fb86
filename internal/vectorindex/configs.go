package vectorindex

import (
	"os"
	"strconv"
	"time"
)

// Config holds connection and behavior settings for the Qdrant-backed index.
type Config struct {
	// Hostname of the Qdrant server, e.g. "localhost".
	Endpoint string `yaml:"endpoint" env:"QDRANT_ENDPOINT"`

	// gRPC port of the Qdrant server. Defaults to 6334.
	Port int `yaml:"port" env:"QDRANT_PORT"`

	// Optional authentication token for secured deployments.
	ApiKey string `yaml:"api_key" env:"QDRANT_API_KEY"`

	// Collection holding the case embeddings.
	Collection string `yaml:"collection" env:"QDRANT_COLLECTION"`

	// Dimension of the stored embedding vectors. Must match the embedding
	// service output; the collection is created with this size.
	Dimension uint64 `yaml:"dimension" env:"EMBEDDING_DIM"`

	// CandidateFloor is the minimum candidate pool considered per query
	// before self-exclusion filtering, regardless of the requested limit.
	CandidateFloor int `yaml:"candidate_floor" env:"QDRANT_CANDIDATE_FLOOR"`

	// Maximum request duration before timing out.
	Timeout time.Duration `yaml:"timeout" env:"QDRANT_TIMEOUT"`

	// Whether to perform version compatibility checks between client and server.
	CheckCompatibility bool `yaml:"check_compatibility" env:"QDRANT_CHECK_COMPATIBILITY"`
}

// DefaultConfig provides sensible defaults for most use cases.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:           "localhost",
		Port:               6334,
		Collection:         "mri_embeddings",
		Dimension:          512,
		CandidateFloor:     50,
		Timeout:            5 * time.Second,
		CheckCompatibility: true,
	}
}

// NewConfig reads the index configuration from environment variables,
// falling back to DefaultConfig values.
func NewConfig() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("QDRANT_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("QDRANT_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Port = n
		}
	}
	cfg.ApiKey = os.Getenv("QDRANT_API_KEY")
	if v := os.Getenv("QDRANT_COLLECTION"); v != "" {
		cfg.Collection = v
	}
	if v := os.Getenv("EMBEDDING_DIM"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			cfg.Dimension = n
		}
	}
	if v := os.Getenv("QDRANT_CANDIDATE_FLOOR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CandidateFloor = n
		}
	}

	return cfg
}
