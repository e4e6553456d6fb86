package blobstore

import (
	"os"
	"strconv"
	"time"
)

const defaultPresignedExpiry = 1 * time.Hour

// Config defines the top-level configuration for the blob store gateway.
type Config struct {
	Connection ConnectionConfig // Connection details for the MinIO/S3 server
	Presigned  PresignedConfig  // Configuration for presigned retrieval URLs
}

// ConnectionConfig contains object store connection details.
type ConnectionConfig struct {
	Endpoint        string // Server endpoint, e.g. "localhost:9000"
	AccessKeyID     string // Access key
	SecretAccessKey string // Secret key
	UseSSL          bool   // Use SSL (true for "https", false for "http")
	BucketName      string // Bucket holding all modality files
	Region          string // Region for the bucket (e.g. "us-east-1")
}

// PresignedConfig contains configuration options for presigned URLs.
type PresignedConfig struct {
	// ExpiryDuration is the default validity window for presigned GET URLs
	// when the caller does not supply one.
	ExpiryDuration time.Duration
}

// NewConfig reads the gateway configuration from environment variables.
func NewConfig() Config {
	expiry := defaultPresignedExpiry
	if v := os.Getenv("BLOBSTORE_PRESIGNED_EXPIRY_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			expiry = time.Duration(n) * time.Second
		}
	}

	useSSL := true
	if v := os.Getenv("BLOBSTORE_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			useSSL = b
		}
	}

	return Config{
		Connection: ConnectionConfig{
			Endpoint:        os.Getenv("BLOBSTORE_ENDPOINT"),
			AccessKeyID:     os.Getenv("BLOBSTORE_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("BLOBSTORE_SECRET_ACCESS_KEY"),
			UseSSL:          useSSL,
			BucketName:      os.Getenv("BLOBSTORE_BUCKET_NAME"),
			Region:          os.Getenv("BLOBSTORE_REGION"),
		},
		Presigned: PresignedConfig{
			ExpiryDuration: expiry,
		},
	}
}
