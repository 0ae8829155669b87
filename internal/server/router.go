package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/abduss/goshare/internal/apperr"
	"github.com/abduss/goshare/internal/auth"
	"github.com/abduss/goshare/internal/blobstore"
	"github.com/abduss/goshare/internal/chunked"
	"github.com/abduss/goshare/internal/config"
	"github.com/abduss/goshare/internal/downloads"
	"github.com/abduss/goshare/internal/entry"
	"github.com/abduss/goshare/internal/gc"
	"github.com/abduss/goshare/internal/guestlink"
	"github.com/abduss/goshare/internal/logger"
	"github.com/abduss/goshare/internal/metrics"
	"github.com/abduss/goshare/internal/presigned"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DownloadHistory is satisfied by *downloads.Repository.
type DownloadHistory interface {
	ListByEntry(ctx context.Context, entryID string) ([]downloads.Event, error)
}

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config      config.Config
	Logger      *zap.Logger
	DB          Pinger
	Blobs       blobstore.Store
	Auth        *auth.Service
	Entries     *entry.Service
	Coordinator *chunked.Coordinator
	GuestLinks  *guestlink.Service
	Downloads   DownloadHistory
	Presigned   *presigned.Service
	// Collector and Guard enable request-piggybacked expiration sweeps.
	Collector *gc.Collector
	Guard     *gc.Guard
}

// payload types that gzip would only inflate
var excludedExtensions = []string{
	".png", ".gif", ".jpeg", ".jpg", ".webp",
	".zip", ".tar", ".gz", ".bz2", ".7z", ".rar",
	".mp4", ".mp3", ".pdf",
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(metrics.Middleware())
	router.Use(cors.Default())

	// Downloads stream with the stored Content-Length.
	router.Use(gzip.Gzip(gzip.BestSpeed,
		gzip.WithExcludedPathsRegexs([]string{`^/e/`}),
		gzip.WithExcludedExtensions(excludedExtensions),
	))

	if deps.Collector != nil && deps.Guard != nil && deps.Config.Retention.SweepOnRequest {
		router.Use(gc.Trigger(deps.Collector, deps.Guard, gc.TriggerConfig{
			Limit:   deps.Config.Retention.SweepLimit,
			Timeout: deps.Config.Retention.SweepTimeout,
		}, deps.Logger))
	}

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	if deps.Entries != nil {
		entry.RegisterPublicRoutes(router, deps.Entries)
	}
	if deps.GuestLinks != nil {
		limit, err := guestRateLimiter(deps.Config.Guest.RateLimit)
		if err != nil {
			return nil, err
		}
		guests := router.Group("/", limit)
		guestlink.RegisterPublicRoutes(guests, deps.GuestLinks, deps.Config.Server.MaxUploadBytes)
	}

	api := router.Group("/v1")
	if deps.Auth != nil {
		auth.RegisterRoutes(api, deps.Auth)

		protected := api.Group("/")
		protected.Use(auth.AuthMiddleware(deps.Auth))

		if deps.Entries != nil {
			entry.RegisterRoutes(protected, deps.Entries, deps.Config.Server.MaxUploadBytes)
			if deps.Downloads != nil {
				downloads.RegisterRoutes(protected, deps.Downloads, deps.Entries)
			}
		}
		if deps.Coordinator != nil {
			chunked.RegisterRoutes(protected, deps.Coordinator)
		}
		if deps.GuestLinks != nil {
			guestlink.RegisterRoutes(protected, deps.GuestLinks)
		}
		if deps.Presigned != nil {
			presigned.RegisterRoutes(protected, deps.Presigned)
		}
	}

	return router, nil
}

// guestRateLimiter throttles anonymous routes per client IP, e.g. "60-M".
func guestRateLimiter(formatted string) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("guest rate limit %q: %w", formatted, err)
	}
	return mgin.NewMiddleware(
		limiter.New(memory.NewStore(), rate),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			apperr.Abort(c, http.StatusTooManyRequests, apperr.CodeRateLimited, fmt.Errorf("rate limit exceeded"))
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			apperr.Abort(c, http.StatusInternalServerError, apperr.CodeInternal, err)
		}),
	), nil
}
