// Package guestlink gates anonymous uploads behind links with byte, count,
// lifetime and expiry limits.
package guestlink

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/abduss/goshare/internal/chunked"
	"github.com/abduss/goshare/internal/entry"
	"github.com/abduss/goshare/internal/metrics"
	"github.com/abduss/goshare/internal/shortid"
	"go.uber.org/zap"
)

type linkStore interface {
	Create(ctx context.Context, l Link) (Link, error)
	Get(ctx context.Context, id string) (Link, error)
	List(ctx context.Context) ([]Link, error)
	Delete(ctx context.Context, id string) error
	IncrementUploadCount(ctx context.Context, id string, n int) error
}

type entryUploader interface {
	Upload(ctx context.Context, upload entry.Upload, opts entry.UploadOptions) (entry.Entry, error)
}

type multipartCoordinator interface {
	Init(ctx context.Context, in chunked.InitInput) (chunked.InitResult, error)
	Session(ctx context.Context, uploadID string) (chunked.Session, error)
	UploadPart(ctx context.Context, uploadID string, partNumber int, body io.Reader, size int64) (int, error)
	Complete(ctx context.Context, uploadID string) (chunked.CompleteResult, error)
	Abort(ctx context.Context, uploadID string) (chunked.AbortResult, error)
}

// UploadResult is the outcome of a guest batch: stored entries, or a rejection verdict.
type UploadResult struct {
	Entries []entry.Entry
	Verdict Verdict
}

// Service manages guest links and the uploads made through them.
//
// The quota check and the count increment are separate statements, so concurrent
// batches against one link can both pass the check and overshoot the limit.
type Service struct {
	links     linkStore
	entries   entryUploader
	multipart multipartCoordinator
	logger    *zap.Logger
	nowFunc   func() time.Time
}

// NewService constructs a guest link service.
func NewService(links linkStore, entries entryUploader, multipart multipartCoordinator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		links:     links,
		entries:   entries,
		multipart: multipart,
		logger:    logger,
		nowFunc:   time.Now,
	}
}

// Create validates the limits and stores a new link.
func (s *Service) Create(ctx context.Context, in CreateInput) (Link, error) {
	if err := in.validate(); err != nil {
		return Link{}, err
	}
	id, err := shortid.New()
	if err != nil {
		return Link{}, err
	}
	return s.links.Create(ctx, Link{
		ID:                  id,
		Label:               entry.SanitizeNote(in.Label),
		MaxFileBytes:        in.MaxFileBytes,
		MaxFileLifetimeDays: in.MaxFileLifetimeDays,
		MaxFileUploads:      in.MaxFileUploads,
		URLExpires:          in.URLExpires,
		CreatedTime:         s.nowFunc().UTC(),
	})
}

// Get returns a link by id.
func (s *Service) Get(ctx context.Context, id string) (Link, error) {
	if !shortid.Valid(id) {
		return Link{}, ErrLinkNotFound
	}
	return s.links.Get(ctx, id)
}

// List returns every link.
func (s *Service) List(ctx context.Context) ([]Link, error) {
	return s.links.List(ctx)
}

// Delete removes a link without touching entries uploaded through it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !shortid.Valid(id) {
		return ErrLinkNotFound
	}
	return s.links.Delete(ctx, id)
}

// Upload authorizes the whole batch, stores every file, then adds the batch size
// to the link's count. A rejected batch writes nothing.
func (s *Service) Upload(ctx context.Context, linkID string, uploads []entry.Upload, note *string) (UploadResult, error) {
	link, err := s.Get(ctx, linkID)
	if err != nil {
		return UploadResult{}, err
	}
	if len(uploads) == 0 {
		return UploadResult{}, ErrEmptyBatch
	}

	candidates := make([]Candidate, len(uploads))
	for i, u := range uploads {
		candidates[i] = Candidate{Filename: u.Name(), Size: u.Len()}
	}
	if verdict := Authorize(link, candidates, s.nowFunc()); !verdict.Allowed() {
		metrics.ObserveGuestRejection(string(verdict.Reason))
		return UploadResult{Verdict: verdict}, nil
	}

	opts := entry.UploadOptions{
		Note:           note,
		ExpirationDays: link.MaxFileLifetimeDays,
		GuestLinkID:    &link.ID,
	}

	stored := make([]entry.Entry, 0, len(uploads))
	for _, u := range uploads {
		e, err := s.entries.Upload(ctx, u, opts)
		if err != nil {
			s.countUploads(ctx, link.ID, len(stored))
			return UploadResult{Entries: stored}, err
		}
		metrics.ObserveUpload(metrics.PathGuest, e.Size)
		stored = append(stored, e)
	}

	s.countUploads(ctx, link.ID, len(stored))
	return UploadResult{Entries: stored}, nil
}

// InitUpload starts a guest multipart upload after checking a single candidate of
// the declared size. The link's lifetime is forced onto the session and the upload
// counts against the link once it completes.
func (s *Service) InitUpload(ctx context.Context, linkID string, in chunked.InitInput) (chunked.InitResult, Verdict, error) {
	link, err := s.Get(ctx, linkID)
	if err != nil {
		return chunked.InitResult{}, Verdict{}, err
	}

	candidate := Candidate{Filename: entry.SanitizeFilename(in.Filename), Size: int64(in.DeclaredSize)}
	if verdict := Authorize(link, []Candidate{candidate}, s.nowFunc()); !verdict.Allowed() {
		metrics.ObserveGuestRejection(string(verdict.Reason))
		return chunked.InitResult{}, verdict, nil
	}

	in.ExpirationDays = link.MaxFileLifetimeDays
	in.GuestLinkID = &link.ID
	result, err := s.multipart.Init(ctx, in)
	return result, Verdict{}, err
}

// UploadPart forwards a part of a session opened through linkID. A single part larger
// than the link's file limit is rejected; the sum of parts is not tracked.
func (s *Service) UploadPart(ctx context.Context, linkID, uploadID string, partNumber int, body io.Reader, size int64) (int, Verdict, error) {
	session, err := s.ownSession(ctx, linkID, uploadID)
	if err != nil {
		return 0, Verdict{}, err
	}
	link, err := s.Get(ctx, linkID)
	if err != nil {
		return 0, Verdict{}, err
	}
	if link.MaxFileBytes != nil && size > *link.MaxFileBytes {
		verdict := Verdict{Reason: RejectFileTooLarge, Filename: session.Filename, MaxBytes: *link.MaxFileBytes}
		metrics.ObserveGuestRejection(string(verdict.Reason))
		return 0, verdict, nil
	}

	n, err := s.multipart.UploadPart(ctx, uploadID, partNumber, body, size)
	return n, Verdict{}, err
}

// Complete finishes a session opened through linkID. The link is checked again
// because other sessions may have used up its quota since Init; a rejected session
// stays in place so the client can abort it.
func (s *Service) Complete(ctx context.Context, linkID, uploadID string) (chunked.CompleteResult, Verdict, error) {
	session, err := s.ownSession(ctx, linkID, uploadID)
	if err != nil {
		return chunked.CompleteResult{}, Verdict{}, err
	}
	link, err := s.Get(ctx, linkID)
	if err != nil {
		return chunked.CompleteResult{}, Verdict{}, err
	}

	candidate := Candidate{Filename: session.Filename, Size: session.DeclaredSize}
	if verdict := Authorize(link, []Candidate{candidate}, s.nowFunc()); !verdict.Allowed() {
		metrics.ObserveGuestRejection(string(verdict.Reason))
		return chunked.CompleteResult{}, verdict, nil
	}

	result, err := s.multipart.Complete(ctx, uploadID)
	return result, Verdict{}, err
}

// Abort cancels a session opened through linkID. Unknown sessions abort successfully.
func (s *Service) Abort(ctx context.Context, linkID, uploadID string) (chunked.AbortResult, error) {
	if _, err := s.ownSession(ctx, linkID, uploadID); err != nil {
		if errors.Is(err, chunked.ErrSessionNotFound) {
			return chunked.AbortResult{}, nil
		}
		return chunked.AbortResult{}, err
	}
	return s.multipart.Abort(ctx, uploadID)
}

// ownSession hides sessions that belong to another link or to an authenticated user.
func (s *Service) ownSession(ctx context.Context, linkID, uploadID string) (chunked.Session, error) {
	session, err := s.multipart.Session(ctx, uploadID)
	if err != nil {
		return chunked.Session{}, err
	}
	if session.GuestLinkID == nil || *session.GuestLinkID != linkID {
		return chunked.Session{}, chunked.ErrSessionNotFound
	}
	return session, nil
}

func (s *Service) countUploads(ctx context.Context, linkID string, n int) {
	if n == 0 {
		return
	}
	if err := s.links.IncrementUploadCount(ctx, linkID, n); err != nil {
		s.logger.Warn("increment guest link upload count",
			zap.String("guest_link_id", linkID),
			zap.Int("count", n),
			zap.Error(err),
		)
	}
}
