package vectorindex

import (
	"context"
	"fmt"
	"log"
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"
)

// QdrantIndex implements Index against a Qdrant collection.
//
// The Qdrant Go SDK creates lightweight gRPC connections, so construction
// performs an immediate health check to fail fast if the service is
// unreachable.
type QdrantIndex struct {
	api *qdrant.Client
	cfg *Config
}

// NewQdrantIndex constructs a QdrantIndex and validates connectivity.
func NewQdrantIndex(cfg *Config) (*QdrantIndex, error) {
	log.Printf("[Qdrant] Connecting to endpoint: %s:%d", cfg.Endpoint, cfg.Port)

	port := cfg.Port
	if port == 0 {
		port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   cfg.Endpoint,
		Port:                   port,
		APIKey:                 cfg.ApiKey,
		SkipCompatibilityCheck: !cfg.CheckCompatibility,
	})
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] failed to initialize client: %w", err)
	}

	idx := &QdrantIndex{
		api: client,
		cfg: cfg,
	}

	if err := idx.healthCheck(); err != nil {
		return nil, fmt.Errorf("[Qdrant] health check failed: %w", err)
	}

	log.Println("[Qdrant] Client connected successfully")
	return idx, nil
}

// healthCheck verifies the availability of the Qdrant service.
// It should be lightweight and fast, suitable for startup and readiness probes.
func (q *QdrantIndex) healthCheck() error {
	if q.api == nil {
		return fmt.Errorf("[Qdrant] client not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	resp, err := q.api.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("[Qdrant] health check failed: %w", err)
	}

	log.Printf("[Qdrant] Health check passed (title=%s, version=%s, endpoint=%s)", resp.Title, resp.Version, q.cfg.Endpoint)

	return nil
}

// Close gracefully shuts down the Qdrant client.
//
// The official Qdrant Go SDK doesn't maintain persistent connections, so
// this is currently a no-op. It exists for lifecycle symmetry.
func (q *QdrantIndex) Close() error {
	log.Println("[Qdrant] closing client (no-op)")
	return nil
}
