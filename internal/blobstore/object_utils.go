package blobstore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
)

const unknownSize int64 = -1

// Put uploads an object to the configured bucket and returns the storage
// reference (the object key) under which it was stored.
//
// Put is safe to call concurrently for distinct keys; the ingestion
// pipeline relies on this to stage all modality files of one case in
// parallel.
func (g *Gateway) Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error) {
	if objectKey == "" {
		return "", fmt.Errorf("object key cannot be empty")
	}

	actualSize := size
	if actualSize == 0 {
		actualSize = unknownSize
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := g.client.PutObject(ctx, g.cfg.Connection.BucketName, objectKey, reader, actualSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store object %q: %w", objectKey, err)
	}

	g.logger.Debug("stored object", nil, map[string]interface{}{
		"bucket": g.cfg.Connection.BucketName,
		"key":    objectKey,
		"size":   size,
	})

	return objectKey, nil
}

// Get retrieves an object from the bucket and returns its contents.
func (g *Gateway) Get(ctx context.Context, objectKey string) ([]byte, error) {
	reader, err := g.client.GetObject(ctx, g.cfg.Connection.BucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer func(reader io.ReadCloser) {
		if err := reader.Close(); err != nil {
			g.logger.Error("failed to close object reader", err, map[string]interface{}{})
		}
	}(reader)

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read object data: %w", err)
	}
	return data, nil
}

// Delete removes an object from the configured bucket.
func (g *Gateway) Delete(ctx context.Context, objectKey string) error {
	err := g.client.RemoveObject(ctx, g.cfg.Connection.BucketName, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		return err
	}
	return nil
}
