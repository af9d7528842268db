package utils

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerConfig(t *testing.T) {
	tests := []struct {
		name     string
		debug    bool
		level    zapcore.Level
		encoding string
	}{
		{"debug", true, zapcore.DebugLevel, "console"},
		{"production", false, zapcore.InfoLevel, "json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loggerConfig(tt.debug)
			if got := cfg.Level.Level(); got != tt.level {
				t.Errorf("level = %v, want %v", got, tt.level)
			}
			if cfg.Encoding != tt.encoding {
				t.Errorf("encoding = %q, want %q", cfg.Encoding, tt.encoding)
			}
			if len(cfg.OutputPaths) != 1 || cfg.OutputPaths[0] != "stderr" {
				t.Errorf("output paths = %v, want [stderr]", cfg.OutputPaths)
			}
		})
	}
}

func TestNewLogger_TagsService(t *testing.T) {
	for _, debug := range []bool{true, false} {
		core, logs := observer.New(zapcore.DebugLevel)
		logger, err := NewLogger(debug, zap.WrapCore(func(zapcore.Core) zapcore.Core { return core }))
		if err != nil {
			t.Fatalf("NewLogger(%v) error: %v", debug, err)
		}
		logger.Info("started")
		entries := logs.All()
		if len(entries) != 1 {
			t.Fatalf("NewLogger(%v): got %d entries, want 1", debug, len(entries))
		}
		if got := entries[0].ContextMap()["service"]; got != ServiceName {
			t.Errorf("NewLogger(%v): service = %v, want %q", debug, got, ServiceName)
		}
	}
}
