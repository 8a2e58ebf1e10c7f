package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"VaultXIngest/internal/app"
	"VaultXIngest/internal/config"
	"VaultXIngest/internal/domain"
	"VaultXIngest/internal/logging"
)

func main() {
	root := &cobra.Command{
		Use:           "vaultx-ingest",
		Short:         "VaultX AI tools and news ingestion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "path to YAML config (default $VAULTX_CONFIG)")

	root.AddCommand(
		runCmd("tools", "Fetch, normalize and store AI tools", (*app.Application).RunTools),
		runCmd("news", "Fetch, normalize and store AI news", (*app.Application).RunNews),
		runCmd("all", "Run the tools pipeline, then the news pipeline", (*app.Application).RunAll),
		scheduleCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type runFunc func(*app.Application, context.Context) (domain.RunReport, error)

func runCmd(use, short string, run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, logger, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeApp(application, logger)

			report, err := run(application, ctx)
			if err != nil {
				return err
			}
			logger.Info("done", "run", report.RunID)
			return nil
		},
	}
}

func scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the combined pipeline daily and serve /status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, logger, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeApp(application, logger)

			if err := application.Serve(ctx); err != nil {
				return err
			}
			logger.Info("scheduler stopped")
			return nil
		},
	}
}

func setup(ctx context.Context, cmd *cobra.Command) (*app.Application, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg := config.Load(path)
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("setup: %w", err)
	}
	return application, logger, nil
}

func closeApp(a *app.Application, logger *slog.Logger) {
	if err := a.Close(); err != nil {
		logger.Error("close", "error", err)
	}
}
