package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"stock_ingest/internal/feature/bars/domain/entity"
	"stock_ingest/internal/feature/bars/transport/handler"
	"stock_ingest/internal/feature/bars/usecase"
)

// mockBarsUsecase はBarsUsecaseインターフェースのモック実装です。
type mockBarsUsecase struct {
	GetBarsFunc func(ctx context.Context, q entity.Query) (entity.Table, error)
}

func (m *mockBarsUsecase) GetBars(ctx context.Context, q entity.Query) (entity.Table, error) {
	return m.GetBarsFunc(ctx, q)
}

// mockIngestUsecase はIngestUsecaseインターフェースのモック実装です。
type mockIngestUsecase struct {
	FetchHistoricalFunc func(ctx context.Context, symbol string, start, end time.Time) ([]entity.Bar, error)
}

func (m *mockIngestUsecase) FetchHistorical(ctx context.Context, symbol string, start, end time.Time) ([]entity.Bar, error) {
	return m.FetchHistoricalFunc(ctx, symbol, start, end)
}

var testTime = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

func TestBarsHandler_GetBars(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		url            string
		mockGetBars    func(ctx context.Context, q entity.Query) (entity.Table, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: all parameters specified",
			url:  "/bars/TSLA?from=2024-01-02&to=2024-01-02%2016:00:00&limit=10",
			mockGetBars: func(ctx context.Context, q entity.Query) (entity.Table, error) {
				assert.Equal(t, "TSLA", q.Symbol)
				assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), q.From)
				assert.Equal(t, time.Date(2024, 1, 2, 16, 0, 0, 0, time.UTC), q.To)
				assert.Equal(t, 10, q.Limit)
				return entity.BarsToTable([]entity.Bar{
					{Time: testTime, Symbol: "TSLA", Open: 249, High: 252, Low: 248, Close: 251.5, Volume: 1500},
				}), nil
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{"columns":["Datetime","Open","High","Low","Close","Volume","Dividends","StockSplits","Symbol"],` +
				`"rows":[["2024-01-02 09:30:00","249","252","248","251.5","1500","0","0","TSLA"]]}`,
		},
		{
			name: "success: defaults passed through",
			url:  "/bars/7203.T?limit=invalid",
			mockGetBars: func(ctx context.Context, q entity.Query) (entity.Table, error) {
				assert.True(t, q.From.IsZero())
				assert.True(t, q.To.IsZero())
				// デフォルト値への変換はusecaseレイヤーで処理される
				assert.Equal(t, 0, q.Limit)
				return entity.BarsToTable(nil), nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"columns":["Datetime","Open","High","Low","Close","Volume","Dividends","StockSplits","Symbol"],"rows":[]}`,
		},
		{
			name:           "error: invalid from",
			url:            "/bars/TSLA?from=yesterday",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid from: unrecognised time \"yesterday\""}`,
		},
		{
			name:           "error: to before from",
			url:            "/bars/TSLA?from=2024-01-03&to=2024-01-02",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"to is before from"}`,
		},
		{
			name: "error: usecase returns error",
			url:  "/bars/TSLA",
			mockGetBars: func(ctx context.Context, q entity.Query) (entity.Table, error) {
				return entity.Table{}, errors.New("database is locked")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"database is locked"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUC := &mockBarsUsecase{GetBarsFunc: func(ctx context.Context, q entity.Query) (entity.Table, error) {
				if tt.mockGetBars == nil {
					t.Error("GetBars should not be called")
					return entity.Table{}, nil
				}
				return tt.mockGetBars(ctx, q)
			}}
			h := handler.NewBarsHandler(mockUC, nil)

			router := gin.New()
			router.GET("/bars/:symbol", h.GetBars)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, tt.url, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestBarsHandler_FetchBars(t *testing.T) {
	gin.SetMode(gin.TestMode)

	twoBars := []entity.Bar{
		{Time: testTime, Symbol: "TSLA", Close: 250},
		{Time: testTime.Add(time.Minute), Symbol: "TSLA", Close: 251.5},
	}

	tests := []struct {
		name           string
		url            string
		nilIngest      bool
		mockFetch      func(ctx context.Context, symbol string, start, end time.Time) ([]entity.Bar, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success",
			url:  "/bars/tsla/fetch?start=2024-01-02&end=2024-01-03",
			mockFetch: func(ctx context.Context, symbol string, start, end time.Time) ([]entity.Bar, error) {
				assert.Equal(t, "TSLA", symbol)
				assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), start)
				assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), end)
				return twoBars, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{"columns":["Datetime","Open","High","Low","Close","Volume","Dividends","StockSplits","Symbol"],"rows":[` +
				`["2024-01-02 09:30:00","0","0","0","250","0","0","0","TSLA"],` +
				`["2024-01-02 09:31:00","0","0","0","251.5","0","0","0","TSLA"]]}`,
		},
		{
			name:           "error: missing start",
			url:            "/bars/TSLA/fetch",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"start is required (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)"}`,
		},
		{
			name:           "error: start after end",
			url:            "/bars/TSLA/fetch?start=2024-01-03&end=2024-01-02",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"start must be before end"}`,
		},
		{
			name: "no data maps to 404",
			url:  "/bars/TSLA/fetch?start=2024-01-06",
			mockFetch: func(context.Context, string, time.Time, time.Time) ([]entity.Bar, error) {
				return nil, usecase.ErrNoData
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"no data"}`,
		},
		{
			name: "provider error maps to 502",
			url:  "/bars/NOPE/fetch?start=2024-01-02",
			mockFetch: func(context.Context, string, time.Time, time.Time) ([]entity.Bar, error) {
				return nil, &usecase.ProviderError{Provider: "yahoo", Symbol: "NOPE", Err: errors.New("404 not found")}
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"error":"yahoo: fetch NOPE: 404 not found"}`,
		},
		{
			name:           "ingest disabled",
			url:            "/bars/TSLA/fetch?start=2024-01-02",
			nilIngest:      true,
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"error":"ingest is disabled"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ingest handler.IngestUsecase
			if !tt.nilIngest {
				ingest = &mockIngestUsecase{FetchHistoricalFunc: func(ctx context.Context, symbol string, start, end time.Time) ([]entity.Bar, error) {
					if tt.mockFetch == nil {
						t.Error("FetchHistorical should not be called")
						return nil, nil
					}
					return tt.mockFetch(ctx, symbol, start, end)
				}}
			}
			h := handler.NewBarsHandler(&mockBarsUsecase{}, ingest)

			router := gin.New()
			router.POST("/bars/:symbol/fetch", h.FetchBars)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, tt.url, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
