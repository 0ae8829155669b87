package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/abduss/goshare/internal/auth"
	"github.com/abduss/goshare/internal/gc"
	"github.com/abduss/goshare/internal/metrics"
	"github.com/abduss/goshare/internal/presigned"
	"github.com/abduss/goshare/internal/server"
	"github.com/abduss/goshare/internal/tracing"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(rt *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), rt)
		},
	}
}

func serve(ctx context.Context, rt *cliEnv) error {
	cfg, log := rt.cfg, rt.log
	gin.SetMode(gin.ReleaseMode)

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	metrics.InitMetrics()

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	authService, err := auth.NewService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	router, err := server.NewRouter(server.Dependencies{
		Config:      cfg,
		Logger:      log,
		DB:          a.pool,
		Blobs:       a.blobs,
		Auth:        authService,
		Entries:     a.entries,
		Coordinator: a.coordinator,
		GuestLinks:  a.guestLinks,
		Downloads:   a.downloads,
		Presigned:   presigned.NewService(a.entries, a.blobs, cfg.Auth.PresignLinkTTL),
		Collector:   a.collector,
		Guard:       gc.NewGuard(cfg.Retention.SweepInterval),
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      otelhttp.NewHandler(router, cfg.Tracing.ServiceName),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info("goshare API listening", zap.String("addr", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		log.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
