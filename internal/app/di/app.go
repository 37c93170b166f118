package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	barsadapters "stock_ingest/internal/feature/bars/adapters"
	"stock_ingest/internal/feature/bars/adapters/filesink"
	barsusecase "stock_ingest/internal/feature/bars/usecase"
	watchlistadapters "stock_ingest/internal/feature/watchlist/adapters"
	watchlistusecase "stock_ingest/internal/feature/watchlist/usecase"
	"stock_ingest/internal/platform/cache"
	"stock_ingest/internal/platform/config"
	infradb "stock_ingest/internal/platform/db"
	platformhandler "stock_ingest/internal/platform/http/handler"
	infraredis "stock_ingest/internal/platform/redis"
	"stock_ingest/internal/shared/ratelimiter"
)

// App holds the wired components shared by every binary.
type App struct {
	DB    *gorm.DB
	Redis *redis.Client // nil when the cache is disabled or unreachable

	File      *filesink.FileSink
	Bars      *barsusecase.BarsUsecase
	Ingest    *barsusecase.IngestUsecase
	Watchlist *watchlistusecase.SymbolUsecase
}

// NewApp opens the database (and Redis when configured) and builds the
// use cases. Call Close when done.
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	market, err := NewMarket(cfg)
	if err != nil {
		return nil, err
	}
	file, err := filesink.New(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("file sink: %w", err)
	}

	db, err := infradb.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	app := &App{DB: db, File: file}

	barRepo, err := barsadapters.NewBarRepository(db, cfg.TableName)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	if err := barRepo.EnsureSchema(ctx); err != nil {
		// 起動時に失敗しても、書き込み時に再試行される
		slog.Warn("failed to ensure bar table; retrying on first write", "table", cfg.TableName, "error", err)
	}
	symbolRepo := watchlistadapters.NewSymbolRepository(db)
	if err := symbolRepo.EnsureSchema(ctx); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("migrate watchlist: %w", err)
	}

	// Redis
	var repo barsusecase.BarRepository = barRepo
	if cfg.Redis.Enabled() {
		rdb, err := infraredis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable; running without cache", "addr", cfg.Redis.Addr(), "error", err)
		} else {
			app.Redis = rdb
			// Redisキャッシュでラップ
			repo = cache.NewCachingBarRepository(rdb, cfg.CacheTTL, barRepo, "bars")
		}
	}

	// Usecase
	persister := barsusecase.NewPersister(file, repo)
	limiter := ratelimiter.NewRateLimiter(cfg.Ingest.RateLimit, cfg.Ingest.RateWindow)
	app.Ingest = barsusecase.NewIngestUsecase(market, persister, symbolRepo, limiter, barsusecase.IngestConfig{
		Symbols:  cfg.Ingest.Symbols,
		Interval: cfg.Ingest.Interval,
	})
	app.Bars = barsusecase.NewBarsUsecase(repo)
	app.Watchlist = watchlistusecase.NewSymbolUsecase(symbolRepo)

	slog.Info("application wired",
		"provider", market.Name(),
		"db_driver", cfg.DB.Driver,
		"table", cfg.TableName,
		"file", file.Path(),
		"cache", app.Redis != nil,
	)
	return app, nil
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var err error
	if a.Redis != nil {
		err = multierr.Append(err, a.Redis.Close())
	}
	if a.DB != nil {
		err = multierr.Append(err, infradb.Close(a.DB))
	}
	return err
}

// HealthChecks returns the reachability checks of the backing stores.
func (a *App) HealthChecks() map[string]platformhandler.Check {
	checks := map[string]platformhandler.Check{
		"database": func(ctx context.Context) error {
			sqlDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		}
	}
	return checks
}
