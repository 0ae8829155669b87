package guestlink

import "time"

// Link lets anonymous visitors upload within its limits. Nil limits are unlimited;
// a nil MaxFileLifetimeDays falls back to the global default expiration.
type Link struct {
	ID                  string     `json:"id"`
	Label               *string    `json:"label"`
	MaxFileBytes        *int64     `json:"max_file_bytes"`
	MaxFileLifetimeDays *int       `json:"max_file_lifetime_days"`
	MaxFileUploads      *int       `json:"max_file_uploads"`
	URLExpires          *time.Time `json:"url_expires"`
	CreatedTime         time.Time  `json:"created_time"`
	UploadCount         int        `json:"upload_count"`
}

// Expired reports whether the link itself stopped accepting uploads at now.
func (l Link) Expired(now time.Time) bool {
	return l.URLExpires != nil && !l.URLExpires.After(now)
}

// Remaining returns how many more files the link accepts, or nil when unlimited.
func (l Link) Remaining() *int {
	if l.MaxFileUploads == nil {
		return nil
	}
	left := *l.MaxFileUploads - l.UploadCount
	if left < 0 {
		left = 0
	}
	return &left
}

// CreateInput describes a new guest link.
type CreateInput struct {
	Label               *string    `json:"label"`
	MaxFileBytes        *int64     `json:"max_file_bytes"`
	MaxFileLifetimeDays *int       `json:"max_file_lifetime_days"`
	MaxFileUploads      *int       `json:"max_file_uploads"`
	URLExpires          *time.Time `json:"url_expires"`
}

func (in CreateInput) validate() error {
	if in.MaxFileBytes != nil && *in.MaxFileBytes < 0 {
		return ErrInvalidLimits
	}
	// Guest entries always expire; zero would mean forever.
	if in.MaxFileLifetimeDays != nil && *in.MaxFileLifetimeDays < 1 {
		return ErrInvalidLimits
	}
	if in.MaxFileUploads != nil && *in.MaxFileUploads < 0 {
		return ErrInvalidLimits
	}
	return nil
}

// PublicView is what an anonymous visitor learns about a link.
type PublicView struct {
	Label               *string    `json:"label"`
	MaxFileBytes        *int64     `json:"max_file_bytes"`
	MaxFileLifetimeDays *int       `json:"max_file_lifetime_days"`
	URLExpires          *time.Time `json:"url_expires"`
	Remaining           *int       `json:"remaining_uploads"`
}

func (l Link) public() PublicView {
	return PublicView{
		Label:               l.Label,
		MaxFileBytes:        l.MaxFileBytes,
		MaxFileLifetimeDays: l.MaxFileLifetimeDays,
		URLExpires:          l.URLExpires,
		Remaining:           l.Remaining(),
	}
}
