// Package presigned issues short-lived direct download URLs for entries.
package presigned

import (
	"context"
	"fmt"
	"time"

	"github.com/abduss/goshare/internal/apperr"
	"github.com/abduss/goshare/internal/entry"
)

// MaxTTL is the longest lifetime S3-compatible backends accept for a presigned URL.
const MaxTTL = 7 * 24 * time.Hour

// ErrInvalidTTL is returned when a requested lifetime is not positive or exceeds MaxTTL.
var ErrInvalidTTL = fmt.Errorf("link ttl must be between 1s and %s: %w", MaxTTL, apperr.ErrInvalidArgument)

type entryGetter interface {
	Get(ctx context.Context, id string) (entry.Entry, error)
}

type urlSigner interface {
	PresignGet(ctx context.Context, key, filename string, ttl time.Duration) (string, error)
}

// Link is a presigned URL plus its expiry.
type Link struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service struct {
	entries entryGetter
	signer  urlSigner
	ttl     time.Duration
	nowFunc func() time.Time
}

func NewService(entries entryGetter, signer urlSigner, ttl time.Duration) *Service {
	return &Service{
		entries: entries,
		signer:  signer,
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// Generate signs a download URL for the entry. A zero ttl uses the configured default.
// The link never outlives the entry itself.
func (s *Service) Generate(ctx context.Context, entryID string, ttl time.Duration) (Link, error) {
	if ttl == 0 {
		ttl = s.ttl
	}
	if ttl < time.Second || ttl > MaxTTL {
		return Link{}, ErrInvalidTTL
	}

	e, err := s.entries.Get(ctx, entryID)
	if err != nil {
		return Link{}, err
	}

	now := s.nowFunc()
	if e.ExpirationTime != nil {
		if remaining := e.ExpirationTime.Sub(now); remaining < ttl {
			ttl = remaining.Truncate(time.Second)
		}
		if ttl < time.Second {
			return Link{}, entry.ErrEntryNotFound
		}
	}

	url, err := s.signer.PresignGet(ctx, e.ID, e.Filename, ttl)
	if err != nil {
		return Link{}, fmt.Errorf("presign entry %s: %w", e.ID, err)
	}
	return Link{URL: url, ExpiresAt: now.Add(ttl)}, nil
}
