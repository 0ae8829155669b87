package entry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("goshare-entry")

// tombstone replaces a cached entry after a write. Fills use SET NX, so a Get that
// read the row before the write cannot re-cache it while the tombstone lives.
const (
	tombstone    = "-"
	tombstoneTTL = 10 * time.Second
)

// cacheClient is the subset of *redis.Client the cache uses.
type cacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// CachedStore is a read-through Redis cache in front of a Store. Only Get is cached;
// writes leave a tombstone. A cache failure never fails the request.
type CachedStore struct {
	Store
	client cacheClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedStore wraps store with a Redis cache holding entries for ttl.
func NewCachedStore(store Store, client cacheClient, ttl time.Duration, logger *zap.Logger) *CachedStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStore{Store: store, client: client, ttl: ttl, logger: logger}
}

func cacheKey(id string) string {
	return fmt.Sprintf("entry:%s", id)
}

// Get serves the entry from cache, falling back to the wrapped store on a miss.
func (s *CachedStore) Get(ctx context.Context, id string) (Entry, error) {
	ctx, span := tracer.Start(ctx, "redis.get_entry", trace.WithAttributes(attribute.String("entry_id", id)))
	defer span.End()

	data, err := s.client.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil && string(data) == tombstone:
	case err == nil:
		var e Entry
		if jsonErr := json.Unmarshal(data, &e); jsonErr == nil {
			span.SetAttributes(attribute.String("cache_status", "hit"))
			return e, nil
		}
		s.logger.Warn("discarding undecodable cache value", zap.String("entry_id", id))
	case errors.Is(err, redis.Nil):
	default:
		span.RecordError(err)
		s.logger.Warn("entry cache read failed", zap.String("entry_id", id), zap.Error(err))
	}
	span.SetAttributes(attribute.String("cache_status", "miss"))

	e, err := s.Store.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	s.set(ctx, e)
	return e, nil
}

// Update writes through and tombstones the cached copy.
func (s *CachedStore) Update(ctx context.Context, e Entry) (Entry, error) {
	updated, err := s.Store.Update(ctx, e)
	s.invalidate(ctx, e.ID)
	return updated, err
}

// Delete removes the row and tombstones the cached copy.
func (s *CachedStore) Delete(ctx context.Context, id string) error {
	err := s.Store.Delete(ctx, id)
	s.invalidate(ctx, id)
	return err
}

func (s *CachedStore) set(ctx context.Context, e Entry) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := s.client.SetNX(ctx, cacheKey(e.ID), data, s.ttl).Err(); err != nil {
		s.logger.Warn("entry cache write failed", zap.String("entry_id", e.ID), zap.Error(err))
	}
}

func (s *CachedStore) invalidate(ctx context.Context, id string) {
	if err := s.client.Set(ctx, cacheKey(id), tombstone, tombstoneTTL).Err(); err != nil {
		s.logger.Warn("entry cache invalidation failed", zap.String("entry_id", id), zap.Error(err))
	}
}
