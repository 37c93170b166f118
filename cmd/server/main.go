package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"stock_ingest/internal/app/di"
	"stock_ingest/internal/app/router"
	barshandler "stock_ingest/internal/feature/bars/transport/handler"
	"stock_ingest/internal/feature/bars/scheduler"
	symbolhandler "stock_ingest/internal/feature/watchlist/transport/handler"
	"stock_ingest/internal/platform/config"
	platformhandler "stock_ingest/internal/platform/http/handler"
	"stock_ingest/internal/platform/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := config.Flags("server")
	flags.String("addr", "", "listen address (default :8080)")
	cfg, err := config.Load(flags, args)
	if err != nil {
		return err
	}
	if addr, _ := flags.GetString("addr"); addr != "" {
		cfg.HTTP.Addr = addr
	}

	syncLog, err := logger.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = syncLog() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db, Redis, Repository, Usecase
	app, err := di.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("failed to close connections", "error", err)
		}
	}()

	// Handler
	healthH := platformhandler.NewHealthHandler(app.HealthChecks())
	barsH := barshandler.NewBarsHandler(app.Bars, app.Ingest)
	symbolH := symbolhandler.NewSymbolHandler(app.Watchlist)

	// ルータ生成
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router.NewRouter(slog.Default(), healthH, barsH, symbolH),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Ingest.Poll {
		poller, err := scheduler.New(cfg.Ingest.PollInterval, app.Ingest.PollOnce)
		if err != nil {
			return err
		}
		g.Go(func() error { return poller.Run(ctx) })
	}

	return g.Wait()
}
