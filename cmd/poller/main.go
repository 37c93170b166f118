// Command poller fetches the latest bar of every configured symbol on a fixed
// interval and persists it until SIGINT or SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"stock_ingest/internal/app/di"
	"stock_ingest/internal/feature/bars/scheduler"
	"stock_ingest/internal/platform/config"
	"stock_ingest/internal/platform/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("poller exited", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(config.Flags("poller"), args)
	if err != nil {
		return err
	}
	syncLog, err := logger.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = syncLog() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := di.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("failed to close connections", "error", err)
		}
	}()

	poller, err := scheduler.New(cfg.Ingest.PollInterval, app.Ingest.PollOnce)
	if err != nil {
		return err
	}
	slog.Info("polling",
		"symbols", cfg.Ingest.Symbols,
		"interval", cfg.Ingest.Interval,
		"every", cfg.Ingest.PollInterval,
		"file", app.File.Path(),
	)
	return poller.Run(ctx)
}
