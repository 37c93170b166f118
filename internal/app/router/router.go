package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	barshandler "stock_ingest/internal/feature/bars/transport/handler"
	watchlisthandler "stock_ingest/internal/feature/watchlist/transport/handler"
	platformhandler "stock_ingest/internal/platform/http/handler"
)

// NewRouter は全フィーチャーのルートを登録した gin.Engine を返します。
func NewRouter(log *slog.Logger, health *platformhandler.HealthHandler, bars *barshandler.BarsHandler,
	symbol *watchlisthandler.SymbolHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), LoggerMiddleware(log))

	// 導通確認用
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)
	r.OPTIONS("/healthz", health.Health)

	// 保存済みバーの参照とオンデマンド取得
	r.GET("/bars/:symbol", bars.GetBars)
	r.POST("/bars/:symbol/fetch", bars.FetchBars)

	// ウォッチリスト
	r.GET("/symbols", symbol.List)
	r.POST("/symbols", symbol.Watch)
	r.DELETE("/symbols/:code", symbol.Unwatch)

	return r
}
