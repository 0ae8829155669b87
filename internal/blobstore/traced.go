package blobstore

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("goshare-blobstore")

// Traced wraps a Store so that every call produces a span.
func Traced(store Store) Store {
	return &tracedStore{next: store}
}

type tracedStore struct {
	next Store
}

func (t *tracedStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	ctx, span := start(ctx, "blob.put", attribute.String("key", key), attribute.Int64("size_bytes", size))
	defer span.End()
	return record(span, t.next.Put(ctx, key, body, size, contentType))
}

func (t *tracedStore) Get(ctx context.Context, key string) (*Object, error) {
	ctx, span := start(ctx, "blob.get", attribute.String("key", key))
	defer span.End()
	obj, err := t.next.Get(ctx, key)
	return obj, record(span, err)
}

func (t *tracedStore) Delete(ctx context.Context, key string) error {
	ctx, span := start(ctx, "blob.delete", attribute.String("key", key))
	defer span.End()
	return record(span, t.next.Delete(ctx, key))
}

func (t *tracedStore) CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	ctx, span := start(ctx, "blob.create_multipart", attribute.String("key", key))
	defer span.End()
	uploadID, err := t.next.CreateMultipartUpload(ctx, key, contentType)
	span.SetAttributes(attribute.String("upload_id", uploadID))
	return uploadID, record(span, err)
}

func (t *tracedStore) UploadPart(ctx context.Context, key, uploadID string, partNumber int, body io.Reader, size int64) (string, error) {
	ctx, span := start(ctx, "blob.upload_part",
		attribute.String("key", key),
		attribute.String("upload_id", uploadID),
		attribute.Int("part_number", partNumber),
		attribute.Int64("size_bytes", size),
	)
	defer span.End()
	etag, err := t.next.UploadPart(ctx, key, uploadID, partNumber, body, size)
	return etag, record(span, err)
}

func (t *tracedStore) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []Part) error {
	ctx, span := start(ctx, "blob.complete_multipart",
		attribute.String("key", key),
		attribute.String("upload_id", uploadID),
		attribute.Int("part_count", len(parts)),
	)
	defer span.End()
	return record(span, t.next.CompleteMultipartUpload(ctx, key, uploadID, parts))
}

func (t *tracedStore) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	ctx, span := start(ctx, "blob.abort_multipart", attribute.String("key", key), attribute.String("upload_id", uploadID))
	defer span.End()
	return record(span, t.next.AbortMultipartUpload(ctx, key, uploadID))
}

func (t *tracedStore) PresignGet(ctx context.Context, key, filename string, ttl time.Duration) (string, error) {
	ctx, span := start(ctx, "blob.presign_get", attribute.String("key", key))
	defer span.End()
	u, err := t.next.PresignGet(ctx, key, filename, ttl)
	return u, record(span, err)
}

func (t *tracedStore) Ping(ctx context.Context) error {
	ctx, span := start(ctx, "blob.ping")
	defer span.End()
	return record(span, t.next.Ping(ctx))
}

func start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func record(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
