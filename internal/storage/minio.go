package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abduss/goshare/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

const (
	defaultObjectStoreTimeout = 5 * time.Second
	abortIncompleteRuleID     = "goshare-abort-incomplete-uploads"
)

// NewMinIOClient builds a MinIO client. A bare host gets the MinIO API port.
func NewMinIOClient(cfg config.MinIOConfig) (*minio.Client, error) {
	endpoint := cfg.Endpoint
	if !strings.Contains(endpoint, ":") {
		endpoint += ":9000"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return client, nil
}

// PrepareBucket creates the entry bucket when missing and, when AbortIncompleteDays is
// positive, installs the lifecycle rule that reaps parts of abandoned multipart uploads.
func PrepareBucket(ctx context.Context, client *minio.Client, cfg config.MinIOConfig) error {
	ctx, cancel := context.WithTimeout(ctx, defaultObjectStoreTimeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %q: %w", cfg.Bucket, err)
		}
	}

	if cfg.AbortIncompleteDays <= 0 {
		return nil
	}
	if err := client.SetBucketLifecycle(ctx, cfg.Bucket, abortIncompleteLifecycle(cfg.AbortIncompleteDays)); err != nil {
		return fmt.Errorf("set lifecycle on %q: %w", cfg.Bucket, err)
	}
	return nil
}

func abortIncompleteLifecycle(days int) *lifecycle.Configuration {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{{
		ID:     abortIncompleteRuleID,
		Status: "Enabled",
		AbortIncompleteMultipartUpload: lifecycle.AbortIncompleteMultipartUpload{
			DaysAfterInitiation: lifecycle.ExpirationDays(days),
		},
	}}
	return cfg
}
