// Package blobstore abstracts the object storage that holds entry payloads.
//
// Objects are addressed by entry id. Besides whole-object put/get/delete every
// backend exposes the native multipart protocol: a session is opened for a key,
// parts are uploaded independently (and may be re-sent), and completion
// reassembles the object from the parts in ascending part-number order.
package blobstore

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrObjectNotFound is returned by Get when no object exists under the key.
	ErrObjectNotFound = errors.New("object not found")
	// ErrUploadNotFound is returned when a multipart upload id is unknown to the backend.
	ErrUploadNotFound = errors.New("multipart upload not found")
	// ErrInvalidPart is returned when completion references a part that was never uploaded.
	ErrInvalidPart = errors.New("invalid multipart part")
	// ErrInvalidPartOrder is returned when completion parts are not in ascending order.
	ErrInvalidPartOrder = errors.New("multipart parts not in ascending order")
)

// Object is an open object body plus the metadata needed to serve it.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// Part identifies one acknowledged chunk of a multipart upload.
type Part struct {
	PartNumber int
	ETag       string
}

// Store is implemented by every object storage backend.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	// Delete removes the object. Deleting a missing key succeeds.
	Delete(ctx context.Context, key string) error

	CreateMultipartUpload(ctx context.Context, key, contentType string) (uploadID string, err error)
	UploadPart(ctx context.Context, key, uploadID string, partNumber int, body io.Reader, size int64) (etag string, err error)
	// CompleteMultipartUpload expects parts sorted by ascending PartNumber.
	CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []Part) error
	AbortMultipartUpload(ctx context.Context, key, uploadID string) error

	// PresignGet returns a time-limited URL that downloads the object as filename.
	PresignGet(ctx context.Context, key, filename string, ttl time.Duration) (string, error)
	Ping(ctx context.Context) error
}
