package embedding

import (
	"fmt"
	"os"
	"strconv"
)

const defaultDimension = 512

type Config struct {
	// Endpoint is the base URL of the embedding model service
	// (no /embed suffix; the provider appends paths itself).
	Endpoint string

	// ServiceToken is an optional bearer token for the model service.
	ServiceToken string

	// HTTPTimeoutS is the HTTP timeout in seconds (default 30). This is the
	// only time bound applied to the embedding call; there is no retry or
	// backoff policy beyond it.
	HTTPTimeoutS int

	// Dimension is the expected embedding vector length. Every stored
	// record must carry a vector of exactly this length for similarity
	// search to be well-defined.
	Dimension int
}

// NewConfig reads from environment variables.
func NewConfig() *Config {
	timeout := 30
	if v := os.Getenv("EMBEDDING_HTTP_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeout = n
		}
	}

	dim := defaultDimension
	if v := os.Getenv("EMBEDDING_DIM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			dim = n
		}
	}

	return &Config{
		Endpoint:     os.Getenv("EMBEDDING_ENDPOINT"),
		ServiceToken: os.Getenv("EMBEDDING_SERVICE_TOKEN"),
		HTTPTimeoutS: timeout,
		Dimension:    dim,
	}
}

// Validate ensures required fields are present.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("embedding: missing EMBEDDING_ENDPOINT")
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("embedding: dimension must be positive, got %d", c.Dimension)
	}
	return nil
}
