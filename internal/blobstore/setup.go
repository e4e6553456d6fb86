package blobstore

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Logger defines the interface for logging operations within the gateway.
// This interface allows for dependency injection of any compatible logger
// implementation.
type Logger interface {
	// Info logs informational messages with optional error and additional fields
	Info(msg string, err error, fields ...map[string]interface{})

	// Debug logs debug-level messages with optional error and additional fields
	Debug(msg string, err error, fields ...map[string]interface{})

	// Warn logs warning messages with optional error and additional fields
	Warn(msg string, err error, fields ...map[string]interface{})

	// Error logs error messages with the associated error and optional additional fields
	Error(msg string, err error, fields ...map[string]interface{})

	// Fatal logs critical error messages that typically require immediate attention
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Gateway wraps a MinIO client with the modality-file storage operations
// used by the ingestion pipeline and the patient retrieval endpoint.
type Gateway struct {
	client *minio.Client
	cfg    Config
	logger Logger
}

// NewGateway creates and validates a new blob store gateway.
// It establishes the connection, validates credentials against the server,
// and ensures the configured bucket exists.
func NewGateway(cfg Config, logger Logger) (*Gateway, error) {
	client, err := connect(cfg, logger)
	if err != nil {
		logger.Error("failed to connect to blob store", err, map[string]interface{}{
			"endpoint": cfg.Connection.Endpoint,
			"region":   cfg.Connection.Region,
			"secure":   cfg.Connection.UseSSL,
			"bucket":   cfg.Connection.BucketName,
		})
		return nil, err
	}

	gw := &Gateway{
		client: client,
		cfg:    cfg,
		logger: logger,
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := gw.validateConnection(timeoutCtx); err != nil {
		logger.Error("failed to validate blob store connection", err, map[string]interface{}{
			"endpoint": cfg.Connection.Endpoint,
			"bucket":   cfg.Connection.BucketName,
		})
		return nil, err
	}
	if err := gw.ensureBucketExists(timeoutCtx); err != nil {
		logger.Error("failed to verify bucket", err, map[string]interface{}{
			"endpoint": cfg.Connection.Endpoint,
			"bucket":   cfg.Connection.BucketName,
		})
		return nil, err
	}

	return gw, nil
}

// connect creates the underlying MinIO client.
func connect(cfg Config, logger Logger) (*minio.Client, error) {
	if cfg.Connection.Endpoint == "" {
		return nil, fmt.Errorf("blob store endpoint cannot be empty")
	}

	logger.Info("connecting to blob store", nil, map[string]interface{}{
		"endpoint": cfg.Connection.Endpoint,
		"region":   cfg.Connection.Region,
		"secure":   cfg.Connection.UseSSL,
	})

	client, err := minio.New(cfg.Connection.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Connection.AccessKeyID, cfg.Connection.SecretAccessKey, ""),
		Secure: cfg.Connection.UseSSL,
		Region: cfg.Connection.Region,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// validateConnection performs a simple operation to validate connectivity.
// Listing buckets requires minimal permissions and fails fast on bad
// credentials or an unreachable endpoint.
func (g *Gateway) validateConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := g.client.ListBuckets(ctx)
	if err != nil {
		return err
	}

	return nil
}

// ensureBucketExists checks if the configured bucket exists and creates it
// if necessary.
func (g *Gateway) ensureBucketExists(ctx context.Context) error {
	bucketName := g.cfg.Connection.BucketName
	if bucketName == "" {
		return fmt.Errorf("bucket name is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := g.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists, bucket: %v, err: %w", bucketName, err)
	}

	if !exists {
		g.logger.Info("bucket does not exist, creating it", nil, map[string]interface{}{
			"bucket": bucketName,
			"region": g.cfg.Connection.Region,
		})

		err = g.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{
			Region: g.cfg.Connection.Region,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Bucket returns the name of the bucket this gateway operates on.
// The embedding service receives it alongside the modality references.
func (g *Gateway) Bucket() string {
	return g.cfg.Connection.BucketName
}
