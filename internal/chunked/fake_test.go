package chunked

import (
	"context"
	"sort"
	"sync"
)

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]Session
	parts    map[string]map[int]string
	getErr   error
	deleted  []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		sessions: make(map[string]Session),
		parts:    make(map[string]map[int]string),
	}
}

func (f *fakeSessions) CreateSession(ctx context.Context, s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.UploadID] = s
	return nil
}

func (f *fakeSessions) GetSession(ctx context.Context, uploadID string) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return Session{}, f.getErr
	}
	s, ok := f.sessions[uploadID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessions) UpsertPart(ctx context.Context, uploadID string, partNumber int, etag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.parts[uploadID] == nil {
		f.parts[uploadID] = make(map[int]string)
	}
	f.parts[uploadID][partNumber] = etag
	return nil
}

func (f *fakeSessions) ListParts(ctx context.Context, uploadID string) ([]Part, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var parts []Part
	for n, etag := range f.parts[uploadID] {
		parts = append(parts, Part{PartNumber: n, ETag: etag})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].PartNumber < parts[j].PartNumber })
	return parts, nil
}

func (f *fakeSessions) DeleteSession(ctx context.Context, uploadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, uploadID)
	delete(f.parts, uploadID)
	f.deleted = append(f.deleted, uploadID)
	return nil
}

func (f *fakeSessions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (f *fakeCounter) IncrementUploadCount(ctx context.Context, linkID string, n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	f.counts[linkID] += n
	return nil
}
