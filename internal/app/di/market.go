// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"

	"stock_ingest/internal/feature/bars/adapters/yahoo"
	"stock_ingest/internal/feature/bars/usecase"
	"stock_ingest/internal/platform/config"
	"stock_ingest/internal/platform/externalapi/twelvedata"
	infrahttp "stock_ingest/internal/platform/http"
)

// NewMarket creates the market data provider selected by cfg.Provider.
func NewMarket(cfg config.Config) (usecase.MarketRepository, error) {
	switch cfg.Provider {
	case config.ProviderYahoo, "":
		return yahoo.NewMarket(), nil
	case config.ProviderTwelveData:
		tdCfg := cfg.TwelveData
		if tdCfg.Timeout <= 0 {
			tdCfg.Timeout = twelvedata.DefaultTimeout
		}
		httpClient := infrahttp.NewHTTPClient(tdCfg.Timeout)
		return twelvedata.NewTwelveDataMarket(tdCfg, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
