package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stock_ingest/internal/feature/bars/domain/entity"
	"stock_ingest/internal/shared/ratelimiter"
)

// ErrNoSymbols is returned by PollOnce when neither the configuration nor the
// watchlist yields a symbol to poll.
var ErrNoSymbols = errors.New("no symbols to poll")

// MarketRepository は株価データを取得するリポジトリのインターフェイスです。
// 外部 API の実装を抽象化します。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type MarketRepository interface {
	// Name identifies the provider in logs and errors.
	Name() string
	// FetchRange returns the bars of symbol sampled at interval within
	// [start, end). A zero end means "up to now". No data is an empty slice.
	FetchRange(ctx context.Context, symbol string, start, end time.Time, interval string) ([]entity.Bar, error)
	// FetchLatest returns the most recent bar of symbol, or an empty slice.
	FetchLatest(ctx context.Context, symbol, interval string) ([]entity.Bar, error)
}

// BarPersister stores fetched bars. Errors are reported but non-fatal.
type BarPersister interface {
	Persist(ctx context.Context, bars []entity.Bar) error
}

// WatchlistRepository lists the symbols to poll when none are configured.
type WatchlistRepository interface {
	ListActiveCodes(ctx context.Context) ([]string, error)
}

// IngestConfig holds the parameters of the ingest operations.
type IngestConfig struct {
	Symbols  []string // Symbols to poll; empty falls back to the watchlist
	Interval string   // Sampling interval (e.g., "1m", "1h", "1d")
}

// IngestUsecase は外部APIからデータを取得し、ファイルとデータベースに永続化するユースケースを定義します。
type IngestUsecase struct {
	market      MarketRepository
	persister   BarPersister
	watchlist   WatchlistRepository
	rateLimiter ratelimiter.RateLimiterInterface
	cfg         IngestConfig
}

// NewIngestUsecase は新しい IngestUsecase を作成します。watchlist は nil でも構いません。
func NewIngestUsecase(market MarketRepository, persister BarPersister, watchlist WatchlistRepository,
	rateLimiter ratelimiter.RateLimiterInterface, cfg IngestConfig) *IngestUsecase {
	return &IngestUsecase{
		market:      market,
		persister:   persister,
		watchlist:   watchlist,
		rateLimiter: rateLimiter,
		cfg:         cfg,
	}
}

// FetchHistorical fetches the bars of symbol between start and end and
// persists them.
//
// It returns ErrNoData when the provider has nothing for the window and a
// *ProviderError when the fetch fails; both are logged here. Persistence
// failures are logged and do not fail the fetch.
func (iu *IngestUsecase) FetchHistorical(ctx context.Context, symbol string, start, end time.Time) ([]entity.Bar, error) {
	symbol = entity.NormalizeSymbol(symbol)
	bars, err := iu.market.FetchRange(ctx, symbol, start, end, iu.cfg.Interval)
	if err != nil {
		perr := &ProviderError{Provider: iu.market.Name(), Symbol: symbol, Err: err}
		slog.Error("failed to fetch historical data", "symbol", symbol, "start", start, "end", end, "error", perr)
		return nil, perr
	}

	bars = withSymbol(bars, symbol)
	if len(bars) == 0 {
		slog.Info("no historical data found", "symbol", symbol, "start", start, "end", end)
		return nil, ErrNoData
	}

	iu.persist(ctx, symbol, bars)
	slog.Info("fetched historical data", "symbol", symbol, "start", start, "end", end, "bars", len(bars))
	return bars, nil
}

// FetchLatest fetches the most recent bar of symbol and persists it.
// Error semantics match FetchHistorical.
func (iu *IngestUsecase) FetchLatest(ctx context.Context, symbol string) ([]entity.Bar, error) {
	symbol = entity.NormalizeSymbol(symbol)
	bars, err := iu.market.FetchLatest(ctx, symbol, iu.cfg.Interval)
	if err != nil {
		perr := &ProviderError{Provider: iu.market.Name(), Symbol: symbol, Err: err}
		slog.Error("failed to fetch live data", "symbol", symbol, "error", perr)
		return nil, perr
	}

	bars = withSymbol(bars, symbol)
	if len(bars) == 0 {
		slog.Info("no live data found", "symbol", symbol)
		return nil, ErrNoData
	}
	// 最新の1本のみを保持する
	bars = bars[len(bars)-1:]

	iu.persist(ctx, symbol, bars)
	slog.Info("fetched live data", "symbol", symbol, "time", entity.FormatTime(bars[0].Time), "close", bars[0].Close)
	return bars, nil
}

// PollOnce runs one poller tick: it fetches and persists the latest bar of
// every symbol to poll. A failing symbol is logged and skipped; only
// cancellation of ctx and symbol resolution errors are returned.
func (iu *IngestUsecase) PollOnce(ctx context.Context) error {
	symbols, err := iu.symbols(ctx)
	if err != nil {
		return err
	}

	for _, s := range symbols {
		if err := iu.rateLimiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := iu.FetchLatest(ctx, s); err != nil {
			// 1つの銘柄でエラーが発生しても処理を止めずに次の銘柄へ
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			continue
		}
	}
	return nil
}

// IngestAll fetches the window [start, end) of every symbol to poll and
// returns the bars that were fetched. Failures are skipped the same way as in
// PollOnce; the error is non-nil only if no symbol could be resolved or ctx
// ends.
func (iu *IngestUsecase) IngestAll(ctx context.Context, start, end time.Time) ([]entity.Bar, error) {
	symbols, err := iu.symbols(ctx)
	if err != nil {
		return nil, err
	}

	var all []entity.Bar
	failed := 0
	for _, s := range symbols {
		if err := iu.rateLimiter.Wait(ctx); err != nil {
			return all, err
		}
		bars, err := iu.FetchHistorical(ctx, s, start, end)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return all, ctxErr
			}
			failed++
			continue
		}
		all = append(all, bars...)
	}
	slog.Info("ingest finished", "symbols", len(symbols), "failed", failed, "bars", len(all))
	return all, nil
}

func (iu *IngestUsecase) symbols(ctx context.Context) ([]string, error) {
	if len(iu.cfg.Symbols) > 0 {
		return iu.cfg.Symbols, nil
	}
	if iu.watchlist == nil {
		return nil, ErrNoSymbols
	}
	codes, err := iu.watchlist.ListActiveCodes(ctx)
	if err != nil {
		slog.Error("failed to load watchlist", "error", err)
		return nil, err
	}
	if len(codes) == 0 {
		return nil, ErrNoSymbols
	}
	return codes, nil
}

func (iu *IngestUsecase) persist(ctx context.Context, symbol string, bars []entity.Bar) {
	// 取得済みのバーは呼び出し元のキャンセル後も両シンクへ書き切る
	if err := iu.persister.Persist(context.WithoutCancel(ctx), bars); err != nil {
		// 取得自体は成功扱い。保存失敗はログに残して続行する
		slog.Warn("bars fetched but not fully persisted", "symbol", symbol, "bars", len(bars), "error", err)
	}
}

// withSymbol 取得したデータに銘柄コードを設定し、保存対象と同じ形（正規化・検証・重複排除済み）にします。
func withSymbol(bars []entity.Bar, symbol string) []entity.Bar {
	for i := range bars {
		bars[i].Symbol = symbol
	}
	return prepareBars(bars)
}
