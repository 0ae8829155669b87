package entry

import (
	"context"
	"time"
)

// Store persists entry metadata rows.
type Store interface {
	Create(ctx context.Context, e Entry) (Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
	List(ctx context.Context, limit, offset int) ([]Entry, error)
	Update(ctx context.Context, e Entry) (Entry, error)
	Delete(ctx context.Context, id string) error
	// ListExpired returns entries whose expiration is at or before now, soonest first.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]Entry, error)
}
