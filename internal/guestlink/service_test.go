package guestlink

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/abduss/goshare/internal/apperr"
	"github.com/abduss/goshare/internal/blobstore"
	"github.com/abduss/goshare/internal/chunked"
	"github.com/abduss/goshare/internal/entry"
	"github.com/abduss/goshare/internal/entry/entrytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linkID = "guestABCDE"

type env struct {
	links     *fakeLinks
	entries   *entrytest.Store
	blobs     *blobstore.MemoryStore
	multipart *fakeMultipart
	service   *Service
	now       time.Time
}

func newEnv(link Link) *env {
	link.ID = linkID
	e := &env{
		links:     newFakeLinks(link),
		entries:   entrytest.NewStore(),
		blobs:     blobstore.NewMemoryStore(),
		multipart: &fakeMultipart{},
		now:       time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	entries := entry.NewService(e.entries, e.blobs, entrytest.NewEvents(), 30, nil)
	e.service = NewService(e.links, entries, e.multipart, nil)
	e.service.nowFunc = func() time.Time { return e.now }
	return e
}

func files(sizes map[string]int) []entry.Upload {
	var out []entry.Upload
	for name, size := range sizes {
		out = append(out, entry.FromBytes(name, "application/octet-stream", make([]byte, size)))
	}
	return out
}

func TestUploadRejectsBatchOverQuotaWithoutWrites(t *testing.T) {
	e := newEnv(Link{MaxFileUploads: ptr(2), UploadCount: 1})

	res, err := e.service.Upload(context.Background(), linkID, files(map[string]int{"a": 1, "b": 1}), nil)
	require.NoError(t, err)

	assert.Equal(t, RejectQuotaExceeded, res.Verdict.Reason)
	assert.Equal(t, 1, res.Verdict.Remaining)
	assert.Empty(t, res.Entries)
	assert.Equal(t, 1, e.links.count(linkID))
	assert.Zero(t, e.blobs.Calls("put"))
}

func TestUploadRejectsBatchWithOversizedFile(t *testing.T) {
	e := newEnv(Link{MaxFileBytes: ptr(int64(1 << 20))})

	batch := []entry.Upload{
		entry.FromBytes("small.bin", "", make([]byte, 500<<10)),
		entry.FromBytes("large.bin", "", make([]byte, 2<<20)),
	}
	res, err := e.service.Upload(context.Background(), linkID, batch, nil)
	require.NoError(t, err)

	assert.Equal(t, RejectFileTooLarge, res.Verdict.Reason)
	assert.Equal(t, "large.bin", res.Verdict.Filename)
	assert.Zero(t, e.blobs.Len(), "first file must not be stored")
	assert.Empty(t, e.entries.All())
	assert.Zero(t, e.links.count(linkID))
}

func TestUploadRejectsExpiredLink(t *testing.T) {
	e := newEnv(Link{URLExpires: ptr(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))})

	res, err := e.service.Upload(context.Background(), linkID, files(map[string]int{"a": 1}), nil)
	require.NoError(t, err)
	assert.Equal(t, RejectLinkExpired, res.Verdict.Reason)
}

func TestUploadStoresBatchAndCountsOnce(t *testing.T) {
	e := newEnv(Link{MaxFileUploads: ptr(5), UploadCount: 1, MaxFileLifetimeDays: ptr(7)})

	res, err := e.service.Upload(context.Background(), linkID, files(map[string]int{"a": 10, "b": 20}), nil)
	require.NoError(t, err)
	require.True(t, res.Verdict.Allowed())
	require.Len(t, res.Entries, 2)

	assert.Equal(t, 3, e.links.count(linkID))
	for _, stored := range res.Entries {
		require.NotNil(t, stored.GuestLinkID)
		assert.Equal(t, linkID, *stored.GuestLinkID)
		require.NotNil(t, stored.ExpirationTime)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), *stored.ExpirationTime, time.Minute)
		assert.True(t, e.blobs.Has(stored.ID))
	}
}

func TestUploadUsesGlobalDefaultLifetime(t *testing.T) {
	e := newEnv(Link{})

	res, err := e.service.Upload(context.Background(), linkID, []entry.Upload{entry.PastedText{Text: "hi"}}, nil)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	require.NotNil(t, res.Entries[0].ExpirationTime)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *res.Entries[0].ExpirationTime, time.Minute)
}

func TestUploadErrors(t *testing.T) {
	e := newEnv(Link{})

	_, err := e.service.Upload(context.Background(), linkID, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = e.service.Upload(context.Background(), "zzzzzzzzzz", files(map[string]int{"a": 1}), nil)
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestInitUploadForcesLinkSettings(t *testing.T) {
	e := newEnv(Link{MaxFileLifetimeDays: ptr(3), MaxFileBytes: ptr(int64(100))})
	userDays := 0

	_, verdict, err := e.service.InitUpload(context.Background(), linkID, chunked.InitInput{Filename: "big", DeclaredSize: 101})
	require.NoError(t, err)
	assert.Equal(t, RejectFileTooLarge, verdict.Reason)
	assert.Empty(t, e.multipart.inits)

	res, verdict, err := e.service.InitUpload(context.Background(), linkID, chunked.InitInput{Filename: "ok", DeclaredSize: 100, ExpirationDays: &userDays})
	require.NoError(t, err)
	require.True(t, verdict.Allowed())
	assert.Equal(t, "up-1", res.UploadID)

	require.Len(t, e.multipart.inits, 1)
	got := e.multipart.inits[0]
	require.NotNil(t, got.ExpirationDays)
	assert.Equal(t, 3, *got.ExpirationDays)
	require.NotNil(t, got.GuestLinkID)
	assert.Equal(t, linkID, *got.GuestLinkID)
}

func TestGuestSessionOwnership(t *testing.T) {
	e := newEnv(Link{})
	other := "zzzzLNKxxx"
	e.links.links[other] = Link{ID: other}

	_, _, err := e.service.InitUpload(context.Background(), linkID, chunked.InitInput{Filename: "f", DeclaredSize: 1})
	require.NoError(t, err)

	_, _, err = e.service.UploadPart(context.Background(), other, "up-1", 1, nil, 0)
	assert.ErrorIs(t, err, chunked.ErrSessionNotFound)

	_, verdict, err := e.service.UploadPart(context.Background(), linkID, "up-1", 1, nil, 0)
	require.NoError(t, err)
	assert.True(t, verdict.Allowed())
	assert.Equal(t, 1, e.multipart.parts)

	_, err = e.service.Abort(context.Background(), other, "up-1")
	require.NoError(t, err)
	assert.Contains(t, e.multipart.sessions, "up-1", "foreign abort must not touch the session")

	_, verdict, err = e.service.Complete(context.Background(), linkID, "up-1")
	require.NoError(t, err)
	assert.True(t, verdict.Allowed())
}

func TestCreateValidatesLimits(t *testing.T) {
	e := newEnv(Link{})

	_, err := e.service.Create(context.Background(), CreateInput{MaxFileUploads: ptr(-1)})
	assert.ErrorIs(t, err, ErrInvalidLimits)

	_, err = e.service.Create(context.Background(), CreateInput{MaxFileLifetimeDays: ptr(0)})
	assert.ErrorIs(t, err, ErrInvalidLimits, "guest entries must not live forever")

	link, err := e.service.Create(context.Background(), CreateInput{Label: ptr("  for the team "), MaxFileBytes: ptr(int64(10))})
	require.NoError(t, err)
	assert.Len(t, link.ID, 10)
	require.NotNil(t, link.Label)
	assert.Equal(t, "for the team", *link.Label)
	assert.Zero(t, link.UploadCount)
}

func withCoordinator(e *env) *chunked.Coordinator {
	coord := chunked.NewCoordinator(newMemSessions(), e.entries, e.blobs, e.links, 30, nil)
	e.service.multipart = coord
	return coord
}

func TestGuestMultipartCompleteRechecksQuota(t *testing.T) {
	e := newEnv(Link{MaxFileUploads: ptr(1)})
	coord := withCoordinator(e)
	ctx := context.Background()

	var uploadIDs []string
	for _, name := range []string{"first.bin", "second.bin"} {
		res, verdict, err := e.service.InitUpload(ctx, linkID, chunked.InitInput{Filename: name, DeclaredSize: 4})
		require.NoError(t, err)
		require.True(t, verdict.Allowed(), "nothing is counted before completion")

		_, verdict, err = e.service.UploadPart(ctx, linkID, res.UploadID, 1, bytes.NewReader([]byte("data")), 4)
		require.NoError(t, err)
		require.True(t, verdict.Allowed())
		uploadIDs = append(uploadIDs, res.UploadID)
	}

	first, verdict, err := e.service.Complete(ctx, linkID, uploadIDs[0])
	require.NoError(t, err)
	require.True(t, verdict.Allowed())
	assert.True(t, e.entries.Has(first.EntryID))
	assert.Equal(t, 1, e.links.count(linkID))

	_, verdict, err = e.service.Complete(ctx, linkID, uploadIDs[1])
	require.NoError(t, err)
	assert.Equal(t, RejectQuotaExceeded, verdict.Reason)
	assert.Equal(t, 0, verdict.Remaining)
	assert.Equal(t, 1, e.links.count(linkID))
	assert.Len(t, e.entries.All(), 1)

	_, err = coord.Session(ctx, uploadIDs[1])
	require.NoError(t, err, "rejected session stays open for abort")

	_, err = e.service.Abort(ctx, linkID, uploadIDs[1])
	require.NoError(t, err)
	_, err = coord.Session(ctx, uploadIDs[1])
	assert.ErrorIs(t, err, chunked.ErrSessionNotFound)
}

func TestGuestUploadPartRejectsOversizedPart(t *testing.T) {
	e := newEnv(Link{MaxFileBytes: ptr(int64(8))})
	ctx := context.Background()

	res, verdict, err := e.service.InitUpload(ctx, linkID, chunked.InitInput{Filename: "tiny", DeclaredSize: 0})
	require.NoError(t, err)
	require.True(t, verdict.Allowed())

	_, verdict, err = e.service.UploadPart(ctx, linkID, res.UploadID, 1, bytes.NewReader(make([]byte, 9)), 9)
	require.NoError(t, err)
	assert.Equal(t, RejectFileTooLarge, verdict.Reason)
	assert.Equal(t, int64(8), verdict.MaxBytes)
	assert.Zero(t, e.multipart.parts)
}
