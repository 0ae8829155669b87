package chunked

import "time"

const (
	// ChunkSize is advertised to every client; one size fits all sessions.
	ChunkSize = 10 * 1024 * 1024
	// MaxPartSize bounds one part request body.
	MaxPartSize = 2 * ChunkSize
	// MaxPartNumber is the S3 multipart limit.
	MaxPartNumber = 10000
)

// Session is the state of an in-flight multipart upload.
type Session struct {
	UploadID       string
	EntryID        string
	Filename       string
	ContentType    string
	DeclaredSize   int64
	ExpirationTime *time.Time
	Note           *string
	GuestLinkID    *string
	CreatedTime    time.Time
}

// Part is one acknowledged chunk of a session.
type Part struct {
	PartNumber int
	ETag       string
}

// InitInput describes the file a client is about to send in parts.
type InitInput struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	// DeclaredSize is taken as-is and never reconciled with the bytes received.
	DeclaredSize float64 `json:"size"`
	Note         *string `json:"note"`
	// ExpirationDays: nil applies the default, 0 keeps the entry forever.
	ExpirationDays *int    `json:"expiration_days"`
	GuestLinkID    *string `json:"-"`
}

// InitResult tells the client where to send parts and how big they should be.
type InitResult struct {
	UploadID  string `json:"upload_id"`
	EntryID   string `json:"entry_id"`
	ChunkSize int    `json:"chunk_size"`
}

// CompleteResult names the entry a completed session became.
type CompleteResult struct {
	EntryID  string `json:"entry_id"`
	Filename string `json:"filename"`
}

// AbortResult reports the secondary outcome of an abort. ReleaseErr is set when the
// blob store kept its multipart session; the local rows are gone either way.
type AbortResult struct {
	ReleaseErr error
}
