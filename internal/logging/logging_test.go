package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/mohammad-safakhou/researcher/config"
)

func TestNew(t *testing.T) {
	logger, err := New(config.GeneralConfig{LogLevel: "warn"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be disabled at warn level")
	}

	logger, err = New(config.GeneralConfig{Debug: true})
	if err != nil {
		t.Fatalf("New debug: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug should be enabled in debug mode")
	}

	if _, err := New(config.GeneralConfig{LogLevel: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
