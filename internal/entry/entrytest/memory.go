// Package entrytest provides in-memory entry collaborators for tests.
package entrytest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/abduss/goshare/internal/entry"
)

// Store is an in-memory entry.Store. Errors set on the exported fields are
// returned by the matching method.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry.Entry

	CreateErr      error
	ListExpiredErr error
	// DeleteErr fails Delete for the listed ids only.
	DeleteErr map[string]error
}

var _ entry.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]entry.Entry), DeleteErr: make(map[string]error)}
}

func (s *Store) Create(ctx context.Context, e entry.Entry) (entry.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return entry.Entry{}, s.CreateErr
	}
	if _, exists := s.entries[e.ID]; exists {
		return entry.Entry{}, errors.New("duplicate entry id")
	}
	s.entries[e.ID] = e
	return e, nil
}

func (s *Store) Get(ctx context.Context, id string) (entry.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return entry.Entry{}, entry.ErrEntryNotFound
	}
	return e, nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]entry.Entry, error) {
	all := s.All()
	sort.Slice(all, func(i, j int) bool { return all[i].UploadTime.After(all[j].UploadTime) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) Update(ctx context.Context, e entry.Entry) (entry.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.ID]; !ok {
		return entry.Entry{}, entry.ErrEntryNotFound
	}
	s.entries[e.ID] = e
	return e, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.DeleteErr[id]; err != nil {
		return err
	}
	delete(s.entries, id)
	return nil
}

func (s *Store) ListExpired(ctx context.Context, now time.Time, limit int) ([]entry.Entry, error) {
	s.mu.Lock()
	if s.ListExpiredErr != nil {
		s.mu.Unlock()
		return nil, s.ListExpiredErr
	}
	var expired []entry.Entry
	for _, e := range s.entries {
		if e.Expired(now) {
			expired = append(expired, e)
		}
	}
	s.mu.Unlock()

	sort.Slice(expired, func(i, j int) bool { return expired[i].ExpirationTime.Before(*expired[j].ExpirationTime) })
	if limit < len(expired) {
		expired = expired[:limit]
	}
	return expired, nil
}

// Put seeds an entry directly.
func (s *Store) Put(e entry.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = e
}

// Has reports whether an entry row exists.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok
}

// All returns a snapshot of every stored entry.
func (s *Store) All() []entry.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entry.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

// Event is a recorded download.
type Event struct {
	EntryID   string
	ClientIP  string
	UserAgent string
}

// Events records download events in memory.
type Events struct {
	mu     sync.Mutex
	events []Event

	RecordErr error
}

// NewEvents returns an empty event recorder.
func NewEvents() *Events {
	return &Events{}
}

func (e *Events) Record(ctx context.Context, entryID, clientIP, userAgent string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.RecordErr != nil {
		return e.RecordErr
	}
	e.events = append(e.events, Event{EntryID: entryID, ClientIP: clientIP, UserAgent: userAgent})
	return nil
}

func (e *Events) DeleteByEntry(ctx context.Context, entryID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	kept := e.events[:0]
	for _, ev := range e.events {
		if ev.EntryID != entryID {
			kept = append(kept, ev)
		}
	}
	e.events = kept
	return nil
}

// Count returns the number of recorded events for entryID.
func (e *Events) Count(entryID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ev := range e.events {
		if ev.EntryID == entryID {
			n++
		}
	}
	return n
}
