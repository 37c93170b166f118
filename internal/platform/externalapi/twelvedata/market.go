package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"stock_ingest/internal/feature/bars/domain/entity"
	"stock_ingest/internal/feature/bars/usecase"
	"stock_ingest/internal/platform/externalapi/twelvedata/dto"
)

// ProviderName identifies this source in logs and errors.
const ProviderName = "twelvedata"

const (
	dateLayout = "2006-01-02"
	// rangeOutputSize は期間指定時の最大取得件数です（API上限）。
	rangeOutputSize = 5000
)

// intervals maps interval names used across the application to Twelve Data names.
var intervals = map[string]string{
	"1m":  "1min",
	"5m":  "5min",
	"15m": "15min",
	"30m": "30min",
	"45m": "45min",
	"60m": "1h",
	"1h":  "1h",
	"2h":  "2h",
	"4h":  "4h",
	"1d":  "1day",
	"1wk": "1week",
	"1mo": "1month",
}

// TranslateInterval returns the Twelve Data name of interval. Names that are
// already in Twelve Data form pass through unchanged.
func TranslateInterval(interval string) string {
	if v, ok := intervals[interval]; ok {
		return v
	}
	if interval == "" {
		return "1day"
	}
	return interval
}

// TwelveDataMarket はTwelve Data外部APIから株価データを取得するMarketRepository実装です。
type TwelveDataMarket struct {
	cfg    Config
	client *http.Client
}

// TwelveDataMarketがMarketRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.MarketRepository = (*TwelveDataMarket)(nil)

// NewTwelveDataMarket は指定された設定とHTTPクライアントでTwelveDataMarketの新しいインスタンスを生成します。
func NewTwelveDataMarket(cfg Config, client *http.Client) *TwelveDataMarket {
	return &TwelveDataMarket{cfg: cfg.withDefaults(), client: client}
}

func (t *TwelveDataMarket) Name() string { return ProviderName }

// FetchRange returns the bars of symbol within [start, end) in ascending order.
func (t *TwelveDataMarket) FetchRange(ctx context.Context, symbol string, start, end time.Time, interval string) ([]entity.Bar, error) {
	q := url.Values{}
	q.Set("start_date", start.UTC().Format(entity.DatetimeLayout))
	if !end.IsZero() {
		q.Set("end_date", end.UTC().Format(entity.DatetimeLayout))
	}
	q.Set("outputsize", strconv.Itoa(rangeOutputSize))

	bars, err := t.timeSeries(ctx, symbol, interval, q)
	if err != nil {
		return nil, err
	}
	// 終端は含めない
	return slices.DeleteFunc(bars, func(b entity.Bar) bool {
		return b.Time.Before(start) || (!end.IsZero() && !b.Time.Before(end))
	}), nil
}

// FetchLatest returns the newest bar of symbol, or none.
func (t *TwelveDataMarket) FetchLatest(ctx context.Context, symbol, interval string) ([]entity.Bar, error) {
	q := url.Values{}
	q.Set("outputsize", "1")
	return t.timeSeries(ctx, symbol, interval, q)
}

// timeSeries は /time_series を呼び出し、古い順のバーとして返します。
func (t *TwelveDataMarket) timeSeries(ctx context.Context, symbol, interval string, q url.Values) ([]entity.Bar, error) {
	// クエリパラメータを追加
	q.Set("symbol", symbol)
	q.Set("interval", TranslateInterval(interval))
	q.Set("timezone", "UTC")
	q.Set("apikey", t.cfg.APIKey)

	// URLを生成
	u := fmt.Sprintf("%s/time_series?%s", t.cfg.BaseURL, q.Encode())

	// リクエストオブジェクトを作成
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	// リクエストを実行
	res, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("twelvedata http %d", res.StatusCode)
	}

	// JSONレスポンスをDTOにデコード
	var body dto.TimeSeriesResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Status == "error" {
		// 指定期間にデータがない場合もエラーとして返ってくる
		if strings.Contains(strings.ToLower(body.Message), "no data") {
			return nil, nil
		}
		return nil, fmt.Errorf("twelvedata: %s", body.Message)
	}

	bars := make([]entity.Bar, 0, len(body.Values))
	for _, v := range body.Values {
		b, err := toEntity(symbol, v)
		if err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	// APIは新しい順で返すので古い順に並べ替える
	slices.SortStableFunc(bars, func(a, b entity.Bar) int { return a.Time.Compare(b.Time) })
	return bars, nil
}

func toEntity(symbol string, v dto.TimeSeriesValue) (entity.Bar, error) {
	// タイムスタンプをパース
	tm, err := time.ParseInLocation(entity.DatetimeLayout, v.Datetime, time.UTC)
	if err != nil {
		tm, err = time.ParseInLocation(dateLayout, v.Datetime, time.UTC)
		if err != nil {
			return entity.Bar{}, fmt.Errorf("parse time %q: %w", v.Datetime, err)
		}
	}
	b := entity.Bar{Time: tm, Symbol: symbol}
	for _, f := range []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"open", v.Open, &b.Open},
		{"high", v.High, &b.High},
		{"low", v.Low, &b.Low},
		{"close", v.Close, &b.Close},
	} {
		if *f.dst, err = strconv.ParseFloat(f.raw, 64); err != nil {
			return entity.Bar{}, fmt.Errorf("parse %s %q: %w", f.name, f.raw, err)
		}
	}
	// 為替・指数など出来高のない銘柄は空文字が返る
	if v.Volume != "" {
		if b.Volume, err = strconv.ParseInt(v.Volume, 10, 64); err != nil {
			return entity.Bar{}, fmt.Errorf("parse volume %q: %w", v.Volume, err)
		}
	}
	return b, nil
}
