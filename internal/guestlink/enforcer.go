package guestlink

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Reason names the limit a guest batch violated.
type Reason string

const (
	Allowed             Reason = ""
	RejectLinkExpired   Reason = "link_expired"
	RejectQuotaExceeded Reason = "quota_exceeded"
	RejectFileTooLarge  Reason = "file_too_large"
)

// Candidate is a file a guest wants to upload, known before any bytes are stored.
type Candidate struct {
	Filename string
	Size     int64
}

// Verdict is the outcome of checking a batch against a link. Only the fields
// relevant to Reason are set.
type Verdict struct {
	Reason    Reason `json:"reason,omitempty"`
	Remaining int    `json:"remaining,omitempty"`
	Filename  string `json:"filename,omitempty"`
	MaxBytes  int64  `json:"max_bytes,omitempty"`
}

// Allowed reports whether the batch may be stored.
func (v Verdict) Allowed() bool {
	return v.Reason == Allowed
}

// Message is a human readable explanation of a rejection.
func (v Verdict) Message() string {
	switch v.Reason {
	case RejectLinkExpired:
		return "this guest link has expired"
	case RejectQuotaExceeded:
		if v.Remaining == 0 {
			return "this guest link does not accept more files"
		}
		return fmt.Sprintf("this guest link accepts only %d more file(s)", v.Remaining)
	case RejectFileTooLarge:
		return fmt.Sprintf("%s is larger than the %s limit", v.Filename, humanize.Bytes(uint64(v.MaxBytes)))
	default:
		return ""
	}
}

// Authorize checks the whole batch against the link before anything is written.
// Checks run in order: link expiry, upload count, then per-file size.
func Authorize(link Link, candidates []Candidate, now time.Time) Verdict {
	if link.Expired(now) {
		return Verdict{Reason: RejectLinkExpired}
	}

	if link.MaxFileUploads != nil && link.UploadCount+len(candidates) > *link.MaxFileUploads {
		return Verdict{Reason: RejectQuotaExceeded, Remaining: *link.Remaining()}
	}

	if link.MaxFileBytes != nil {
		for _, c := range candidates {
			if c.Size > *link.MaxFileBytes {
				return Verdict{Reason: RejectFileTooLarge, Filename: c.Filename, MaxBytes: *link.MaxFileBytes}
			}
		}
	}

	return Verdict{}
}
