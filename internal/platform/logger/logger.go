// Package logger builds the process-wide slog logger backed by zap.
package logger

import (
	"fmt"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// Config holds the logging settings.
type Config struct {
	Level  string // debug | info | warn | error
	Format string // json | console
}

// New returns a slog.Logger writing through zap, and the function that
// flushes it.
func New(cfg Config) (*slog.Logger, func() error, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("parse log level: %w", err)
		}
		level = l
	}

	var zcfg zap.Config
	switch cfg.Format {
	case "", "json":
		zcfg = zap.NewProductionConfig()
	case "console":
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	zl, err := zcfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return slog.New(zapslog.NewHandler(zl.Core())), zl.Sync, nil
}

// Setup installs the logger built from cfg as the slog default.
func Setup(cfg Config) (func() error, error) {
	l, sync, err := New(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return sync, nil
}
