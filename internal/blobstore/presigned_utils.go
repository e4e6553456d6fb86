package blobstore

import (
	"context"
	"net/url"
	"time"
)

// SignedGet generates a time-limited retrieval URL for a stored reference.
//
// An empty reference yields an empty URL and no error: modality slots and
// thumbnails are independently nullable, and callers render a placeholder
// for the slots that have no stored object.
//
// When ttl is zero the configured default expiry is used.
func (g *Gateway) SignedGet(ctx context.Context, reference string, ttl time.Duration) (string, error) {
	if reference == "" {
		g.logger.Debug("skipping signed URL for empty reference", nil, nil)
		return "", nil
	}

	expiry := ttl
	if expiry <= 0 {
		expiry = g.cfg.Presigned.ExpiryDuration
	}

	signedURL, err := g.client.PresignedGetObject(ctx, g.cfg.Connection.BucketName, reference, expiry, url.Values{})
	if err != nil {
		g.logger.Error("failed to generate presigned URL", err, map[string]interface{}{
			"bucket": g.cfg.Connection.BucketName,
			"key":    reference,
		})
		return "", err
	}

	return signedURL.String(), nil
}
