// Package handler はbarsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"stock_ingest/internal/feature/bars/domain/entity"
	"stock_ingest/internal/feature/bars/usecase"
)

// BarsUsecase は保存済みバーの参照ユースケースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type BarsUsecase interface {
	GetBars(ctx context.Context, q entity.Query) (entity.Table, error)
}

// IngestUsecase はオンデマンド取得のユースケースです。
type IngestUsecase interface {
	FetchHistorical(ctx context.Context, symbol string, start, end time.Time) ([]entity.Bar, error)
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// BarsHandler はバーデータのHTTPリクエストを処理します。
type BarsHandler struct {
	bars   BarsUsecase
	ingest IngestUsecase
}

// NewBarsHandler は BarsHandler を生成します。ingest が nil の場合、取得エンドポイントは 503 を返します。
func NewBarsHandler(bars BarsUsecase, ingest IngestUsecase) *BarsHandler {
	return &BarsHandler{bars: bars, ingest: ingest}
}

// GetBars は保存済みのバーを表形式のJSONで返します。
//
// エンドポイント例:
// GET /bars/:symbol?from=2024-01-02&to=2024-01-03%2016:00:00&limit=200
func (h *BarsHandler) GetBars(c *gin.Context) {
	q := entity.Query{Symbol: c.Param("symbol")}

	var err error
	if q.From, err = parseTimeParam(c.Query("from")); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from: " + err.Error()})
		return
	}
	if q.To, err = parseTimeParam(c.Query("to")); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to: " + err.Error()})
		return
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "to is before from"})
		return
	}
	// 不正値は0としてusecaseに渡し、デフォルト値への変換はusecaseで行う
	q.Limit, _ = strconv.Atoi(c.Query("limit"))

	tbl, err := h.bars.GetBars(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, tbl)
}

// FetchBars は指定期間のバーをプロバイダから取得して保存し、取得したバーを表形式で返します。
//
// エンドポイント例:
// POST /bars/:symbol/fetch?start=2024-01-02&end=2024-01-03
func (h *BarsHandler) FetchBars(c *gin.Context) {
	if h.ingest == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "ingest is disabled"})
		return
	}
	symbol := entity.NormalizeSymbol(c.Param("symbol"))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "symbol is required"})
		return
	}
	start, err := parseTimeParam(c.Query("start"))
	if err != nil || start.IsZero() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "start is required (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)"})
		return
	}
	end, err := parseTimeParam(c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid end: " + err.Error()})
		return
	}
	if !end.IsZero() && !start.Before(end) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "start must be before end"})
		return
	}

	bars, err := h.ingest.FetchHistorical(c.Request.Context(), symbol, start, end)
	if err != nil {
		c.JSON(statusOf(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, entity.BarsToTable(bars))
}

func statusOf(err error) int {
	var perr *usecase.ProviderError
	switch {
	case errors.Is(err, usecase.ErrNoData):
		return http.StatusNotFound
	case errors.As(err, &perr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var timeLayouts = []string{entity.DatetimeLayout, "2006-01-02", time.RFC3339}

// parseTimeParam parses a query value as UTC. An empty value is the zero time.
func parseTimeParam(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}
