package main

import (
	"context"
	"fmt"

	"github.com/abduss/goshare/internal/blobstore"
	"github.com/abduss/goshare/internal/chunked"
	"github.com/abduss/goshare/internal/config"
	"github.com/abduss/goshare/internal/downloads"
	"github.com/abduss/goshare/internal/entry"
	"github.com/abduss/goshare/internal/gc"
	"github.com/abduss/goshare/internal/guestlink"
	"github.com/abduss/goshare/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// app holds the wired domain services shared by serve and sweep.
type app struct {
	pool        *pgxpool.Pool
	redis       *redis.Client
	blobs       blobstore.Store
	entries     *entry.Service
	downloads   *downloads.Repository
	coordinator *chunked.Coordinator
	guestLinks  *guestlink.Service
	collector   *gc.Collector
}

func buildApp(ctx context.Context, cfg config.Config, log *zap.Logger) (*app, error) {
	pool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a := &app{pool: pool}

	if err := storage.Migrate(ctx, pool); err != nil {
		a.close()
		return nil, err
	}

	a.blobs, err = storage.NewBlobStore(ctx, cfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	var entryStore entry.Store = entry.NewRepository(pool)
	if cfg.Redis.Enabled() {
		a.redis, err = storage.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		entryStore = entry.NewCachedStore(entryStore, a.redis, cfg.Redis.CacheTTL, log.Named("cache"))
	}

	defaultDays := cfg.Retention.DefaultExpirationDays
	a.downloads = downloads.NewRepository(pool)
	a.entries = entry.NewService(entryStore, a.blobs, a.downloads, defaultDays, log.Named("entry"))

	links := guestlink.NewRepository(pool)
	a.coordinator = chunked.NewCoordinator(chunked.NewRepository(pool), entryStore, a.blobs, links, defaultDays, log.Named("chunked"))
	a.guestLinks = guestlink.NewService(links, a.entries, a.coordinator, log.Named("guestlink"))
	a.collector = gc.NewCollector(a.entries, a.entries, log.Named("gc"))

	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
