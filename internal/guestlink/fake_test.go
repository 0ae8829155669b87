package guestlink

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/abduss/goshare/internal/chunked"
)

type fakeLinks struct {
	mu    sync.Mutex
	links map[string]Link
}

func newFakeLinks(links ...Link) *fakeLinks {
	f := &fakeLinks{links: make(map[string]Link)}
	for _, l := range links {
		f.links[l.ID] = l
	}
	return f
}

func (f *fakeLinks) Create(ctx context.Context, l Link) (Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[l.ID] = l
	return l, nil
}

func (f *fakeLinks) Get(ctx context.Context, id string) (Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[id]
	if !ok {
		return Link{}, ErrLinkNotFound
	}
	return l, nil
}

func (f *fakeLinks) List(ctx context.Context) ([]Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Link
	for _, l := range f.links {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeLinks) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.links[id]; !ok {
		return ErrLinkNotFound
	}
	delete(f.links, id)
	return nil
}

func (f *fakeLinks) IncrementUploadCount(ctx context.Context, id string, n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := f.links[id]
	l.UploadCount += n
	f.links[id] = l
	return nil
}

func (f *fakeLinks) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.links[id].UploadCount
}

type fakeMultipart struct {
	inits    []chunked.InitInput
	sessions map[string]chunked.Session
	parts    int
}

func (f *fakeMultipart) Init(ctx context.Context, in chunked.InitInput) (chunked.InitResult, error) {
	f.inits = append(f.inits, in)
	uploadID := "up-1"
	if f.sessions == nil {
		f.sessions = make(map[string]chunked.Session)
	}
	f.sessions[uploadID] = chunked.Session{UploadID: uploadID, EntryID: "eeeeeeeeee", GuestLinkID: in.GuestLinkID}
	return chunked.InitResult{UploadID: uploadID, EntryID: "eeeeeeeeee", ChunkSize: chunked.ChunkSize}, nil
}

func (f *fakeMultipart) Session(ctx context.Context, uploadID string) (chunked.Session, error) {
	s, ok := f.sessions[uploadID]
	if !ok {
		return chunked.Session{}, chunked.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeMultipart) UploadPart(ctx context.Context, uploadID string, partNumber int, body io.Reader, size int64) (int, error) {
	f.parts++
	return partNumber, nil
}

func (f *fakeMultipart) Complete(ctx context.Context, uploadID string) (chunked.CompleteResult, error) {
	delete(f.sessions, uploadID)
	return chunked.CompleteResult{EntryID: "eeeeeeeeee", Filename: "f"}, nil
}

func (f *fakeMultipart) Abort(ctx context.Context, uploadID string) (chunked.AbortResult, error) {
	delete(f.sessions, uploadID)
	return chunked.AbortResult{}, nil
}

// memSessions backs a real chunked.Coordinator in guest multipart tests.
type memSessions struct {
	mu       sync.Mutex
	sessions map[string]chunked.Session
	parts    map[string]map[int]string
}

func newMemSessions() *memSessions {
	return &memSessions{
		sessions: make(map[string]chunked.Session),
		parts:    make(map[string]map[int]string),
	}
}

func (m *memSessions) CreateSession(ctx context.Context, s chunked.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UploadID] = s
	return nil
}

func (m *memSessions) GetSession(ctx context.Context, uploadID string) (chunked.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[uploadID]
	if !ok {
		return chunked.Session{}, chunked.ErrSessionNotFound
	}
	return s, nil
}

func (m *memSessions) UpsertPart(ctx context.Context, uploadID string, partNumber int, etag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.parts[uploadID] == nil {
		m.parts[uploadID] = make(map[int]string)
	}
	m.parts[uploadID][partNumber] = etag
	return nil
}

func (m *memSessions) ListParts(ctx context.Context, uploadID string) ([]chunked.Part, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var parts []chunked.Part
	for n, etag := range m.parts[uploadID] {
		parts = append(parts, chunked.Part{PartNumber: n, ETag: etag})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].PartNumber < parts[j].PartNumber })
	return parts, nil
}

func (m *memSessions) DeleteSession(ctx context.Context, uploadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, uploadID)
	delete(m.parts, uploadID)
	return nil
}
