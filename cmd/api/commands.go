package main

import (
	"fmt"
	"time"

	"github.com/abduss/goshare/internal/gc"
	"github.com/abduss/goshare/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd(rt *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := storage.NewPostgresPool(cmd.Context(), rt.cfg.Postgres)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			if err := storage.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			rt.log.Info("migrations applied")
			return nil
		},
	}
}

func newSweepCmd(rt *cliEnv) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired entries once and exit",
		Long: "Runs a single expiration sweep. Use it from cron when request-triggered sweeps " +
			"are disabled with GOSHARE_SWEEP_ON_REQUEST=false.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer a.close()

			if limit <= 0 {
				limit = rt.cfg.Retention.SweepLimit
			}
			result, err := a.collector.Sweep(cmd.Context(), time.Now(), gc.ClampLimit(limit))
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}

			for _, f := range result.Failures {
				rt.log.Warn("entry not purged", zap.String("entry_id", f.EntryID), zap.Error(f.Err))
			}
			rt.log.Info("sweep finished",
				zap.Int("deleted", result.Deleted),
				zap.Int("failed", len(result.Failures)),
			)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries to delete (defaults to GOSHARE_SWEEP_LIMIT)")
	return cmd
}
