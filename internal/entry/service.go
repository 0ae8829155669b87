package entry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abduss/goshare/internal/blobstore"
	"github.com/abduss/goshare/internal/shortid"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

type eventStore interface {
	Record(ctx context.Context, entryID, clientIP, userAgent string) error
	DeleteByEntry(ctx context.Context, entryID string) error
}

// Client identifies who downloaded an entry.
type Client struct {
	IP        string
	UserAgent string
}

// Service coordinates entry metadata with blob storage.
type Service struct {
	store       Store
	blobs       blobstore.Store
	events      eventStore
	defaultDays int
	logger      *zap.Logger
	nowFunc     func() time.Time
}

// NewService constructs an entry service. defaultDays applies to uploads that do not pick a lifetime.
func NewService(store Store, blobs blobstore.Store, events eventStore, defaultDays int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		blobs:       blobs,
		events:      events,
		defaultDays: defaultDays,
		logger:      logger,
		nowFunc:     time.Now,
	}
}

// DefaultExpirationDays is the lifetime applied when an upload does not choose one.
func (s *Service) DefaultExpirationDays() int {
	return s.defaultDays
}

// Upload stores the payload under a fresh id and then commits the metadata row.
// If the commit fails the blob is removed again on a best-effort basis.
func (s *Service) Upload(ctx context.Context, upload Upload, opts UploadOptions) (Entry, error) {
	if upload == nil {
		return Entry{}, ErrEmptyUpload
	}

	now := s.nowFunc().UTC()
	expiration, err := ResolveExpiration(now, opts.ExpirationDays, s.defaultDays)
	if err != nil {
		return Entry{}, err
	}

	id, err := shortid.New()
	if err != nil {
		return Entry{}, err
	}

	body, contentType, err := openUpload(upload)
	if err != nil {
		return Entry{}, err
	}
	defer body.Close()

	if err := s.blobs.Put(ctx, id, body, upload.Len(), contentType); err != nil {
		return Entry{}, fmt.Errorf("store blob: %w", err)
	}

	stored, err := s.store.Create(ctx, Entry{
		ID:             id,
		Filename:       upload.Name(),
		ContentType:    contentType,
		Size:           upload.Len(),
		UploadTime:     now,
		ExpirationTime: expiration,
		Note:           SanitizeNote(opts.Note),
		GuestLinkID:    opts.GuestLinkID,
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, id); delErr != nil {
			s.logger.Warn("orphaned blob after failed commit", zap.String("entry_id", id), zap.Error(delErr))
		}
		return Entry{}, err
	}
	return stored, nil
}

// List returns entries newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, limit, offset)
}

// Get returns a live entry. Entries past their expiration read as missing even before a sweep removes them.
func (s *Service) Get(ctx context.Context, id string) (Entry, error) {
	if !shortid.Valid(id) {
		return Entry{}, ErrEntryNotFound
	}
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if e.Expired(s.nowFunc()) {
		return Entry{}, ErrEntryNotFound
	}
	return e, nil
}

// Exists returns ErrEntryNotFound unless id names a live entry.
func (s *Service) Exists(ctx context.Context, id string) error {
	_, err := s.Get(ctx, id)
	return err
}

// Download opens the entry's blob and records a download event.
// A failure to record the event is logged and does not fail the download.
func (s *Service) Download(ctx context.Context, id string, client Client) (Entry, *blobstore.Object, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return Entry{}, nil, err
	}

	obj, err := s.blobs.Get(ctx, e.ID)
	if err != nil {
		if errors.Is(err, blobstore.ErrObjectNotFound) {
			return Entry{}, nil, ErrEntryNotFound
		}
		return Entry{}, nil, fmt.Errorf("fetch blob: %w", err)
	}

	if err := s.events.Record(ctx, e.ID, client.IP, client.UserAgent); err != nil {
		s.logger.Warn("record download event", zap.String("entry_id", e.ID), zap.Error(err))
	}
	return e, obj, nil
}

// Edit applies a partial update to filename, note or expiration.
func (s *Service) Edit(ctx context.Context, id string, input EditInput) (Entry, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}

	if input.Filename != nil {
		e.Filename = SanitizeFilename(*input.Filename)
	}
	if input.Note != nil {
		e.Note = SanitizeNote(input.Note)
	}
	if input.ExpirationDays != nil {
		expiration, err := ResolveExpiration(s.nowFunc(), input.ExpirationDays, s.defaultDays)
		if err != nil {
			return Entry{}, err
		}
		e.ExpirationTime = expiration
	}

	return s.store.Update(ctx, e)
}

// Delete removes an entry on request of its owner.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !shortid.Valid(id) {
		return ErrEntryNotFound
	}
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.Purge(ctx, e)
}

// Purge deletes the blob, then the download events, then the row. A blob that is
// already gone counts as deleted.
func (s *Service) Purge(ctx context.Context, e Entry) error {
	if err := s.blobs.Delete(ctx, e.ID); err != nil && !errors.Is(err, blobstore.ErrObjectNotFound) {
		return fmt.Errorf("delete blob %s: %w", e.ID, err)
	}
	if err := s.events.DeleteByEntry(ctx, e.ID); err != nil {
		return fmt.Errorf("delete download events %s: %w", e.ID, err)
	}
	if err := s.store.Delete(ctx, e.ID); err != nil {
		return fmt.Errorf("delete entry row %s: %w", e.ID, err)
	}
	return nil
}

// ListExpired exposes the expiration scan to the garbage collector.
func (s *Service) ListExpired(ctx context.Context, now time.Time, limit int) ([]Entry, error) {
	return s.store.ListExpired(ctx, now, limit)
}

func openUpload(upload Upload) (io.ReadCloser, string, error) {
	switch u := upload.(type) {
	case FileUpload:
		if u.Open == nil {
			return nil, "", ErrEmptyUpload
		}
		body, err := u.Open()
		if err != nil {
			return nil, "", fmt.Errorf("open upload: %w", err)
		}
		return body, ContentTypeOrDefault(u.ContentType), nil
	case PastedText:
		return io.NopCloser(strings.NewReader(u.Text)), pastedTextContentType, nil
	default:
		return nil, "", fmt.Errorf("unsupported upload %T", upload)
	}
}

// FromBytes builds a FileUpload over an in-memory payload.
func FromBytes(filename, contentType string, data []byte) FileUpload {
	return FileUpload{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
