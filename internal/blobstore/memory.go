package blobstore

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memObject struct {
	data        []byte
	contentType string
}

type memUpload struct {
	key         string
	contentType string
	parts       map[int][]byte
}

// MemoryStore keeps objects in process memory. It backs local development
// (GOSHARE_BLOB_BACKEND=memory) and tests, and enforces the same multipart
// rules as S3: parts must be completed in ascending order with matching etags.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]memObject
	uploads map[string]*memUpload
	calls   map[string]int
	fail    map[string]error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memObject),
		uploads: make(map[string]*memUpload),
		calls:   make(map[string]int),
		fail:    make(map[string]error),
	}
}

func (s *MemoryStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["put"]++
	if err := s.fail["put"]; err != nil {
		return err
	}
	s.objects[key] = memObject{data: data, contentType: contentType}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["get"]++
	if err := s.fail["get"]; err != nil {
		return nil, err
	}
	obj, ok := s.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return &Object{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		Size:        int64(len(obj.data)),
		ContentType: obj.contentType,
	}, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["delete"]++
	if err := s.fail["delete"]; err != nil {
		return err
	}
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["create_multipart"]++
	if err := s.fail["create_multipart"]; err != nil {
		return "", err
	}
	uploadID := uuid.NewString()
	s.uploads[uploadID] = &memUpload{key: key, contentType: contentType, parts: make(map[int][]byte)}
	return uploadID, nil
}

func (s *MemoryStore) UploadPart(ctx context.Context, key, uploadID string, partNumber int, body io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read part: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["upload_part"]++
	if err := s.fail["upload_part"]; err != nil {
		return "", err
	}
	upload, ok := s.uploads[uploadID]
	if !ok || upload.key != key {
		return "", ErrUploadNotFound
	}
	upload.parts[partNumber] = data
	return etagOf(data), nil
}

func (s *MemoryStore) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []Part) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["complete_multipart"]++
	if err := s.fail["complete_multipart"]; err != nil {
		return err
	}
	upload, ok := s.uploads[uploadID]
	if !ok || upload.key != key {
		return ErrUploadNotFound
	}

	var buf bytes.Buffer
	last := 0
	for _, p := range parts {
		if p.PartNumber <= last {
			return ErrInvalidPartOrder
		}
		last = p.PartNumber
		data, ok := upload.parts[p.PartNumber]
		if !ok || etagOf(data) != p.ETag {
			return ErrInvalidPart
		}
		buf.Write(data)
	}

	s.objects[key] = memObject{data: buf.Bytes(), contentType: upload.contentType}
	delete(s.uploads, uploadID)
	return nil
}

func (s *MemoryStore) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["abort_multipart"]++
	if err := s.fail["abort_multipart"]; err != nil {
		return err
	}
	if _, ok := s.uploads[uploadID]; !ok {
		return ErrUploadNotFound
	}
	delete(s.uploads, uploadID)
	return nil
}

func (s *MemoryStore) PresignGet(ctx context.Context, key, filename string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return "", ErrObjectNotFound
	}
	return fmt.Sprintf("memory://%s?filename=%s&expires=%d", key, filename, int64(ttl.Seconds())), nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Fail makes every later call of op return err. A nil err clears it.
func (s *MemoryStore) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

// Bytes returns a copy of the object stored under key.
func (s *MemoryStore) Bytes(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(obj.data), true
}

// Has reports whether an object exists under key.
func (s *MemoryStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// OpenUploads returns the number of multipart uploads neither completed nor aborted.
func (s *MemoryStore) OpenUploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads)
}

// Calls returns how many times op was invoked, e.g. "put" or "abort_multipart".
func (s *MemoryStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func etagOf(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

var _ Store = (*MemoryStore)(nil)
