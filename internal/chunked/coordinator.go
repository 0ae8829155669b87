// Package chunked turns a file sent in parts into an entry, driving the blob
// store's native multipart protocol.
package chunked

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/abduss/goshare/internal/blobstore"
	"github.com/abduss/goshare/internal/entry"
	"github.com/abduss/goshare/internal/metrics"
	"github.com/abduss/goshare/internal/shortid"
	"go.uber.org/zap"
)

type sessionStore interface {
	CreateSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, uploadID string) (Session, error)
	UpsertPart(ctx context.Context, uploadID string, partNumber int, etag string) error
	ListParts(ctx context.Context, uploadID string) ([]Part, error)
	DeleteSession(ctx context.Context, uploadID string) error
}

type entryCreator interface {
	Create(ctx context.Context, e entry.Entry) (entry.Entry, error)
}

type uploadCounter interface {
	IncrementUploadCount(ctx context.Context, linkID string, n int) error
}

// Coordinator manages multipart upload sessions.
type Coordinator struct {
	sessions    sessionStore
	entries     entryCreator
	blobs       blobstore.Store
	guestLinks  uploadCounter
	defaultDays int
	logger      *zap.Logger
	nowFunc     func() time.Time
}

// NewCoordinator builds a coordinator. guestLinks may be nil when guest uploads are disabled.
func NewCoordinator(sessions sessionStore, entries entryCreator, blobs blobstore.Store, guestLinks uploadCounter, defaultDays int, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		sessions:    sessions,
		entries:     entries,
		blobs:       blobs,
		guestLinks:  guestLinks,
		defaultDays: defaultDays,
		logger:      logger,
		nowFunc:     time.Now,
	}
}

// Init opens a blob store multipart upload keyed by a freshly minted entry id and persists the session.
func (c *Coordinator) Init(ctx context.Context, in InitInput) (InitResult, error) {
	if math.IsNaN(in.DeclaredSize) || math.IsInf(in.DeclaredSize, 0) || in.DeclaredSize < 0 {
		return InitResult{}, ErrInvalidSize
	}

	now := c.nowFunc().UTC()
	expiration, err := entry.ResolveExpiration(now, in.ExpirationDays, c.defaultDays)
	if err != nil {
		return InitResult{}, err
	}

	entryID, err := shortid.New()
	if err != nil {
		return InitResult{}, err
	}

	contentType := entry.ContentTypeOrDefault(in.ContentType)
	uploadID, err := c.blobs.CreateMultipartUpload(ctx, entryID, contentType)
	if err != nil {
		return InitResult{}, fmt.Errorf("create multipart upload: %w", err)
	}

	session := Session{
		UploadID:       uploadID,
		EntryID:        entryID,
		Filename:       entry.SanitizeFilename(in.Filename),
		ContentType:    contentType,
		DeclaredSize:   int64(in.DeclaredSize),
		ExpirationTime: expiration,
		Note:           entry.SanitizeNote(in.Note),
		GuestLinkID:    in.GuestLinkID,
		CreatedTime:    now,
	}
	if err := c.sessions.CreateSession(ctx, session); err != nil {
		if abortErr := c.blobs.AbortMultipartUpload(ctx, entryID, uploadID); abortErr != nil {
			c.logger.Warn("release multipart upload after failed init", zap.String("upload_id", uploadID), zap.Error(abortErr))
		}
		return InitResult{}, err
	}

	c.logger.Debug("multipart upload started",
		zap.String("upload_id", uploadID),
		zap.String("entry_id", entryID),
		zap.Int64("declared_size", session.DeclaredSize),
	)
	return InitResult{UploadID: uploadID, EntryID: entryID, ChunkSize: ChunkSize}, nil
}

// Session returns the stored session for uploadID.
func (c *Coordinator) Session(ctx context.Context, uploadID string) (Session, error) {
	return c.sessions.GetSession(ctx, uploadID)
}

// UploadPart forwards one part to the blob store and records its etag.
// Sending the same part number again replaces the earlier etag.
func (c *Coordinator) UploadPart(ctx context.Context, uploadID string, partNumber int, body io.Reader, size int64) (int, error) {
	if partNumber < 1 || partNumber > MaxPartNumber {
		return 0, ErrInvalidPartNumber
	}
	if size > MaxPartSize {
		return 0, ErrPartTooLarge
	}

	session, err := c.sessions.GetSession(ctx, uploadID)
	if err != nil {
		return 0, err
	}

	etag, err := c.blobs.UploadPart(ctx, session.EntryID, uploadID, partNumber, body, size)
	if err != nil {
		return 0, fmt.Errorf("upload part %d: %w", partNumber, err)
	}
	if err := c.sessions.UpsertPart(ctx, uploadID, partNumber, etag); err != nil {
		return 0, err
	}

	metrics.ObservePart()
	return partNumber, nil
}

// Complete assembles the parts in ascending part order, commits the entry row and
// drops the session. The blob is finalized before the row is written; a failure in
// between leaves an orphaned object and no entry.
func (c *Coordinator) Complete(ctx context.Context, uploadID string) (CompleteResult, error) {
	session, err := c.sessions.GetSession(ctx, uploadID)
	if err != nil {
		return CompleteResult{}, err
	}

	parts, err := c.sessions.ListParts(ctx, uploadID)
	if err != nil {
		return CompleteResult{}, err
	}
	if len(parts) == 0 {
		return CompleteResult{}, ErrNoParts
	}

	blobParts := make([]blobstore.Part, len(parts))
	for i, p := range parts {
		blobParts[i] = blobstore.Part{PartNumber: p.PartNumber, ETag: p.ETag}
	}
	if err := c.blobs.CompleteMultipartUpload(ctx, session.EntryID, uploadID, blobParts); err != nil {
		return CompleteResult{}, fmt.Errorf("complete multipart upload: %w", err)
	}

	created, err := c.entries.Create(ctx, entry.Entry{
		ID:             session.EntryID,
		Filename:       session.Filename,
		ContentType:    session.ContentType,
		Size:           session.DeclaredSize,
		UploadTime:     c.nowFunc().UTC(),
		ExpirationTime: session.ExpirationTime,
		Note:           session.Note,
		GuestLinkID:    session.GuestLinkID,
	})
	if err != nil {
		c.logger.Error("entry commit failed after multipart completion",
			zap.String("upload_id", uploadID),
			zap.String("entry_id", session.EntryID),
			zap.Error(err),
		)
		return CompleteResult{}, err
	}

	// The entry is committed; leftover session rows are harmless.
	if err := c.sessions.DeleteSession(ctx, uploadID); err != nil {
		c.logger.Warn("delete completed upload session", zap.String("upload_id", uploadID), zap.Error(err))
	}

	path := metrics.PathMultipart
	if session.GuestLinkID != nil {
		path = metrics.PathGuest
		c.recordGuestUpload(ctx, *session.GuestLinkID)
	}
	metrics.ObserveUpload(path, created.Size)

	return CompleteResult{EntryID: created.ID, Filename: created.Filename}, nil
}

// Abort releases the blob store session on a best-effort basis and removes the local rows.
// Aborting an unknown upload succeeds without touching the blob store.
func (c *Coordinator) Abort(ctx context.Context, uploadID string) (AbortResult, error) {
	session, err := c.sessions.GetSession(ctx, uploadID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return AbortResult{}, nil
		}
		return AbortResult{}, err
	}

	var result AbortResult
	if err := c.blobs.AbortMultipartUpload(ctx, session.EntryID, uploadID); err != nil {
		result.ReleaseErr = err
		c.logger.Warn("release multipart upload", zap.String("upload_id", uploadID), zap.Error(err))
	}

	if err := c.sessions.DeleteSession(ctx, uploadID); err != nil {
		return result, err
	}
	return result, nil
}

func (c *Coordinator) recordGuestUpload(ctx context.Context, linkID string) {
	if c.guestLinks == nil {
		return
	}
	if err := c.guestLinks.IncrementUploadCount(ctx, linkID, 1); err != nil {
		c.logger.Warn("increment guest link upload count", zap.String("guest_link_id", linkID), zap.Error(err))
	}
}
