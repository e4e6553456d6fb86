package embedding

import (
	"context"
	"fmt"

	"github.com/simri/simri/internal/mri"
)

// Client is the public entrypoint for computing embeddings.
//
// It hides all provider details (inference endpoint, HTTP, payload shape)
// from the application layer. Application code should depend on *Client,
// not on Provider or inferenceProvider.
type Client struct {
	provider  Provider
	dimension int
}

// NewClient constructs a Client from Config.
// It validates the config and internally constructs the inference provider.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("embedding: invalid config: %w", err)
	}

	p, err := newInferenceProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding: failed to create provider: %w", err)
	}

	return &Client{provider: p, dimension: cfg.Dimension}, nil
}

// Dimension returns the fixed embedding vector length every stored record
// must carry.
func (c *Client) Dimension() int {
	return c.dimension
}

// Embed computes the embedding vector for one staged case and enforces the
// configured dimensionality. A vector of the wrong length is treated the
// same as a malformed payload.
func (c *Client) Embed(ctx context.Context, patientID, bucket string, refs mri.ModalityRefs) ([]float32, error) {
	vector, err := c.provider.Embed(ctx, Request{
		PatientID: patientID,
		Bucket:    bucket,
		Refs:      refs,
	})
	if err != nil {
		return nil, err
	}

	if len(vector) != c.dimension {
		return nil, &ServiceError{
			Err: fmt.Errorf("embedding has dimension %d, expected %d", len(vector), c.dimension),
		}
	}

	return vector, nil
}

// Close allows the client to release any internal resources used by the
// provider. Currently this is a no-op unless the provider implements Close().
func (c *Client) Close() error {
	if closer, ok := c.provider.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
