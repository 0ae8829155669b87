package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/abduss/goshare/internal/config"
	"github.com/abduss/goshare/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cliEnv is loaded once by the root command and shared by every subcommand.
type cliEnv struct {
	cfg config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	rt := &cliEnv{}
	var envFile string

	root := &cobra.Command{
		Use:           "goshare",
		Short:         "Self-hosted file sharing API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}

			log, err := logger.Init()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			rt.cfg, rt.log = cfg, log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt.log != nil {
				_ = rt.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	serve := newServeCmd(rt)
	root.RunE = serve.RunE
	root.AddCommand(serve, newMigrateCmd(rt), newSweepCmd(rt))
	return root
}
