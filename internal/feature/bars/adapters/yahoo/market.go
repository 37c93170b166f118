// Package yahoo fetches price bars from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"stock_ingest/internal/feature/bars/domain/entity"
	"stock_ingest/internal/feature/bars/usecase"
)

// ProviderName identifies this source in logs and errors.
const ProviderName = "yahoo"

// latestLookback is how far back FetchLatest looks for the newest bar.
// 週末や祝日を跨いでも直近の足が取れるよう数日分を見る
const latestLookback = 5 * 24 * time.Hour

// chartIter is the subset of *chart.Iter used here.
type chartIter interface {
	Next() bool
	Bar() *finance.ChartBar
	Err() error
}

type market struct {
	getChart func(*chart.Params) chartIter
	now      func() time.Time
}

var _ usecase.MarketRepository = (*market)(nil)

// NewMarket creates a Yahoo Finance MarketRepository.
func NewMarket() *market {
	return &market{
		getChart: func(p *chart.Params) chartIter { return chart.Get(p) },
		now:      time.Now,
	}
}

func (m *market) Name() string { return ProviderName }

// FetchRange returns the bars of symbol within [start, end). A zero end means now.
func (m *market) FetchRange(ctx context.Context, symbol string, start, end time.Time, interval string) ([]entity.Bar, error) {
	if end.IsZero() {
		end = m.now()
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("invalid range: start %s is not before end %s", start, end)
	}
	return m.fetch(ctx, symbol, start, end, interval)
}

// FetchLatest returns the newest bar of symbol, or none.
func (m *market) FetchLatest(ctx context.Context, symbol, interval string) ([]entity.Bar, error) {
	end := m.now()
	bars, err := m.fetch(ctx, symbol, end.Add(-latestLookback), end, interval)
	if err != nil || len(bars) == 0 {
		return nil, err
	}
	return bars[len(bars)-1:], nil
}

func (m *market) fetch(ctx context.Context, symbol string, start, end time.Time, interval string) ([]entity.Bar, error) {
	if interval == "" {
		interval = string(datetime.OneDay)
	}
	p := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.Interval(interval),
	}
	p.Context = &ctx

	it := m.getChart(p)
	var bars []entity.Bar
	for it.Next() {
		b := it.Bar()
		if b == nil {
			continue
		}
		bar := toEntity(symbol, b)
		// 欠損した足（null）は 0 にデコードされるため除外する
		if isEmptyQuote(bar) {
			continue
		}
		bars = append(bars, bar)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}

func toEntity(symbol string, b *finance.ChartBar) entity.Bar {
	open, _ := b.Open.Float64()
	high, _ := b.High.Float64()
	low, _ := b.Low.Float64()
	cl, _ := b.Close.Float64()
	return entity.Bar{
		Time:   time.Unix(int64(b.Timestamp), 0).UTC(),
		Symbol: symbol,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  cl,
		Volume: int64(b.Volume),
	}
}

// isEmptyQuote reports whether every price of b is zero.
func isEmptyQuote(b entity.Bar) bool {
	return b.Open == 0 && b.High == 0 && b.Low == 0 && b.Close == 0
}
