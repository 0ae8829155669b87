package entry

import (
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxFilenameLength bounds stored filenames, counted in runes.
	MaxFilenameLength = 255
	// MaxNoteLength bounds entry notes, counted in runes.
	MaxNoteLength = 500

	DefaultFilename    = "upload"
	DefaultContentType = "application/octet-stream"

	pastedTextFilename    = "paste.txt"
	pastedTextContentType = "text/plain; charset=utf-8"
)

// Entry is a committed, downloadable file and its metadata. The blob object lives under key ID.
type Entry struct {
	ID             string     `json:"id"`
	Filename       string     `json:"filename"`
	ContentType    string     `json:"content_type"`
	Size           int64      `json:"size"`
	UploadTime     time.Time  `json:"upload_time"`
	ExpirationTime *time.Time `json:"expiration_time"`
	Note           *string    `json:"note"`
	GuestLinkID    *string    `json:"guest_link_id,omitempty"`
}

// Expired reports whether the entry's expiration has passed at now.
func (e Entry) Expired(now time.Time) bool {
	return e.ExpirationTime != nil && !e.ExpirationTime.After(now)
}

// Upload is one item of an upload request: a FileUpload or a PastedText.
// The variant is chosen once when the request is parsed.
type Upload interface {
	// Name is the sanitized filename the entry will carry.
	Name() string
	// Len is the payload size in bytes.
	Len() int64
	isUpload()
}

// FileUpload is a file sent in a multipart form.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

func (f FileUpload) Name() string { return SanitizeFilename(f.Filename) }
func (f FileUpload) Len() int64   { return f.Size }
func (FileUpload) isUpload()      {}

// PastedText is text typed into the upload form instead of a file.
type PastedText struct {
	Filename string
	Text     string
}

func (p PastedText) Name() string {
	if strings.TrimSpace(p.Filename) == "" {
		return pastedTextFilename
	}
	return SanitizeFilename(p.Filename)
}
func (p PastedText) Len() int64 { return int64(len(p.Text)) }
func (PastedText) isUpload()    {}

// UploadOptions carries the per-request metadata applied to every stored upload.
type UploadOptions struct {
	Note *string
	// ExpirationDays: nil applies the default, 0 keeps the entry forever.
	ExpirationDays *int
	GuestLinkID    *string
}

// EditInput describes a partial update. Nil fields are left untouched.
type EditInput struct {
	Filename       *string `json:"filename"`
	Note           *string `json:"note"`
	ExpirationDays *int    `json:"expiration_days"`
}

// SanitizeFilename trims the name, bounds its length and falls back to DefaultFilename.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultFilename
	}
	return truncateRunes(name, MaxFilenameLength)
}

// SanitizeNote bounds the note length and turns blank notes into nil.
func SanitizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	trimmed = truncateRunes(trimmed, MaxNoteLength)
	return &trimmed
}

// ContentTypeOrDefault returns ct or DefaultContentType when it is blank.
func ContentTypeOrDefault(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return DefaultContentType
	}
	return ct
}

// ResolveExpiration turns a requested lifetime into an expiration time.
// nil selects defaultDays; zero days means the entry never expires.
func ResolveExpiration(now time.Time, days *int, defaultDays int) (*time.Time, error) {
	d := defaultDays
	if days != nil {
		d = *days
	}
	if d < 0 {
		return nil, ErrInvalidExpiration
	}
	if d == 0 {
		return nil, nil
	}
	exp := now.UTC().AddDate(0, 0, d)
	return &exp, nil
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
