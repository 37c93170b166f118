package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// LoggerMiddleware writes one structured log line per request.
func LoggerMiddleware(log *slog.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		level := slog.LevelInfo
		if param.StatusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}

		attrs := []slog.Attr{
			slog.String("method", param.Method),
			slog.String("uri", param.Path),
			slog.Int("status", param.StatusCode),
			slog.Duration("latency", param.Latency),
			slog.String("client_ip", param.ClientIP),
		}
		if param.ErrorMessage != "" {
			attrs = append(attrs, slog.String("error", param.ErrorMessage))
		}
		log.LogAttrs(context.Background(), level, "request", attrs...)
		return ""
	})
}
