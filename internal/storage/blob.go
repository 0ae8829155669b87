package storage

import (
	"context"
	"fmt"

	"github.com/abduss/goshare/internal/blobstore"
	"github.com/abduss/goshare/internal/config"
)

// NewBlobStore builds the configured blob backend wrapped with tracing.
func NewBlobStore(ctx context.Context, cfg config.Config) (blobstore.Store, error) {
	var store blobstore.Store

	switch cfg.Blob.Backend {
	case config.BlobBackendMinIO:
		client, err := NewMinIOClient(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		if err := PrepareBucket(ctx, client, cfg.MinIO); err != nil {
			return nil, err
		}
		store = blobstore.NewMinIOStore(client, cfg.MinIO.Bucket)
	case config.BlobBackendS3:
		client, err := NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		store = blobstore.NewS3Store(client, cfg.S3.Bucket)
	case config.BlobBackendMemory:
		store = blobstore.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Blob.Backend)
	}

	return blobstore.Traced(store), nil
}
