package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mohammad-safakhou/researcher/config"
)

// New builds the process logger. Debug switches to the console encoder with
// caller info; otherwise JSON production output at the configured level.
func New(cfg config.GeneralConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.LogLevel))
	if err != nil && cfg.LogLevel != "" {
		return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}
	if cfg.LogLevel == "" {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Debug {
		zc = zap.NewDevelopmentConfig()
		if cfg.LogLevel == "" {
			level = zapcore.DebugLevel
		}
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
