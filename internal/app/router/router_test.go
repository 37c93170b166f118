package router

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_ingest/internal/feature/bars/domain/entity"
	barshandler "stock_ingest/internal/feature/bars/transport/handler"
	watchlistentity "stock_ingest/internal/feature/watchlist/domain/entity"
	watchlisthandler "stock_ingest/internal/feature/watchlist/transport/handler"
	platformhandler "stock_ingest/internal/platform/http/handler"
)

type stubBars struct{}

func (stubBars) GetBars(_ context.Context, q entity.Query) (entity.Table, error) {
	return entity.BarsToTable([]entity.Bar{{Time: time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC), Symbol: q.Symbol}}), nil
}

type stubSymbols struct{}

func (stubSymbols) ListActiveSymbols(context.Context) ([]watchlistentity.Symbol, error) {
	return []watchlistentity.Symbol{{Code: "TSLA", Name: "Tesla"}}, nil
}
func (stubSymbols) Watch(context.Context, watchlistentity.Symbol) error { return nil }
func (stubSymbols) Unwatch(context.Context, string) error            { return nil }

func newTestRouter(t *testing.T, logs io.Writer) *gin.Engine {
	t.Helper()

	log := slog.New(slog.NewJSONHandler(logs, nil))
	health := platformhandler.NewHealthHandler(nil)
	// ingest 無効: nil インターフェースを渡す
	bars := barshandler.NewBarsHandler(stubBars{}, nil)
	symbols := watchlisthandler.NewSymbolHandler(stubSymbols{})
	return NewRouter(log, health, bars, symbols)
}

func TestNewRouter_Routes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Parallel()

	var logs bytes.Buffer
	r := newTestRouter(t, &logs)

	tests := []struct {
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodHead, "/healthz", "", http.StatusOK},
		{http.MethodOptions, "/healthz", "", http.StatusNoContent},
		{http.MethodGet, "/bars/TSLA", "", http.StatusOK},
		{http.MethodPost, "/bars/TSLA/fetch?start=2024-01-02", "", http.StatusServiceUnavailable},
		{http.MethodGet, "/symbols", "", http.StatusOK},
		{http.MethodPost, "/symbols", `{"code":"aapl"}`, http.StatusNoContent},
		{http.MethodDelete, "/symbols/AAPL", "", http.StatusNoContent},
		{http.MethodGet, "/candles/TSLA", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		if tt.body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		r.ServeHTTP(w, req)
		assert.Equal(t, tt.wantStatus, w.Code, "%s %s", tt.method, tt.path)
	}
}

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Parallel()

	var logs bytes.Buffer
	r := newTestRouter(t, &logs)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bars/TSLA?limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)

	out := logs.String()
	assert.Contains(t, out, `"msg":"request"`)
	assert.Contains(t, out, `"uri":"/bars/TSLA?limit=5"`)
	assert.Contains(t, out, `"status":200`)
	assert.Contains(t, out, `"level":"INFO"`)
}
