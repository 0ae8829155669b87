package blobstore

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
)

// MinIOStore adapts minio.Core to the Store interface.
type MinIOStore struct {
	core   *minio.Core
	bucket string
}

// NewMinIOStore constructs an adapter bound to bucket.
func NewMinIOStore(client *minio.Client, bucket string) *MinIOStore {
	return &MinIOStore{core: &minio.Core{Client: client}, bucket: bucket}
}

func (s *MinIOStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.core.Client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *MinIOStore) Get(ctx context.Context, key string) (*Object, error) {
	obj, err := s.core.Client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateMinIOError(key, err)
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, translateMinIOError(key, err)
	}
	return &Object{Body: obj, Size: info.Size, ContentType: info.ContentType}, nil
}

func (s *MinIOStore) Delete(ctx context.Context, key string) error {
	err := s.core.Client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isMinIOCode(err, "NoSuchKey") {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

func (s *MinIOStore) CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	uploadID, err := s.core.NewMultipartUpload(ctx, s.bucket, key, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("create multipart upload %s: %w", key, err)
	}
	return uploadID, nil
}

func (s *MinIOStore) UploadPart(ctx context.Context, key, uploadID string, partNumber int, body io.Reader, size int64) (string, error) {
	part, err := s.core.PutObjectPart(ctx, s.bucket, key, uploadID, partNumber, body, size, minio.PutObjectPartOptions{})
	if err != nil {
		if isMinIOCode(err, "NoSuchUpload") {
			return "", ErrUploadNotFound
		}
		return "", fmt.Errorf("upload part %d of %s: %w", partNumber, key, err)
	}
	return part.ETag, nil
}

func (s *MinIOStore) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []Part) error {
	completed := make([]minio.CompletePart, len(parts))
	for i, p := range parts {
		completed[i] = minio.CompletePart{PartNumber: p.PartNumber, ETag: p.ETag}
	}
	if _, err := s.core.CompleteMultipartUpload(ctx, s.bucket, key, uploadID, completed, minio.PutObjectOptions{}); err != nil {
		switch {
		case isMinIOCode(err, "NoSuchUpload"):
			return ErrUploadNotFound
		case isMinIOCode(err, "InvalidPart"):
			return ErrInvalidPart
		case isMinIOCode(err, "InvalidPartOrder"):
			return ErrInvalidPartOrder
		}
		return fmt.Errorf("complete multipart upload %s: %w", key, err)
	}
	return nil
}

func (s *MinIOStore) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	if err := s.core.AbortMultipartUpload(ctx, s.bucket, key, uploadID); err != nil {
		if isMinIOCode(err, "NoSuchUpload") {
			return ErrUploadNotFound
		}
		return fmt.Errorf("abort multipart upload %s: %w", key, err)
	}
	return nil
}

func (s *MinIOStore) PresignGet(ctx context.Context, key, filename string, ttl time.Duration) (string, error) {
	params := make(url.Values)
	params.Set("response-content-disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))

	u, err := s.core.Client.PresignedGetObject(ctx, s.bucket, key, ttl, params)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

func (s *MinIOStore) Ping(ctx context.Context) error {
	exists, err := s.core.Client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}

func translateMinIOError(key string, err error) error {
	if isMinIOCode(err, "NoSuchKey") {
		return ErrObjectNotFound
	}
	return fmt.Errorf("get object %s: %w", key, err)
}

func isMinIOCode(err error, code string) bool {
	return minio.ToErrorResponse(err).Code == code
}

var _ Store = (*MinIOStore)(nil)
