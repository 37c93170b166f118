// Package usecase implements fetching, persisting and querying of price bars.
package usecase

import (
	"context"

	"stock_ingest/internal/feature/bars/domain/entity"
)

const (
	// DefaultLimit はバー検索のデフォルト返却件数です。
	DefaultLimit = 200
	// MaxLimit はバー検索の最大返却件数です。
	MaxLimit = 5000
)

// BarRepository はテーブルシンクの読み書きレイヤーを抽象化します。
type BarRepository interface {
	TableSink
	// Find returns the newest bars matching q, newest first.
	Find(ctx context.Context, q entity.Query) ([]entity.Bar, error)
}

// BarsUsecase serves stored bars to presentation adapters.
type BarsUsecase struct {
	repo BarRepository
}

// NewBarsUsecase creates a BarsUsecase.
func NewBarsUsecase(repo BarRepository) *BarsUsecase {
	return &BarsUsecase{repo: repo}
}

// GetBars returns the bars selected by q as a table in ascending time order.
// Limit outside (0, MaxLimit] falls back to DefaultLimit.
func (bu *BarsUsecase) GetBars(ctx context.Context, q entity.Query) (entity.Table, error) {
	q.Symbol = entity.NormalizeSymbol(q.Symbol)
	if q.Limit <= 0 || q.Limit > MaxLimit {
		q.Limit = DefaultLimit
	}

	bars, err := bu.repo.Find(ctx, q)
	if err != nil {
		return entity.Table{}, err
	}

	// 古い順に並べ替える（グラフ描画向け）
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return entity.BarsToTable(bars), nil
}
