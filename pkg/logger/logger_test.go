package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		level       string
		enabled     zapcore.Level
		disabled    zapcore.Level
	}{
		{"development default", "development", "", zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"production default", "production", "", zapcore.InfoLevel, zapcore.DebugLevel},
		{"explicit warn", "production", "warn", zapcore.WarnLevel, zapcore.InfoLevel},
		{"unparseable level ignored", "production", "loud", zapcore.InfoLevel, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.environment, tt.level)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer log.Sync()

			core := log.Core()
			if !core.Enabled(tt.enabled) {
				t.Errorf("level %s should be enabled", tt.enabled)
			}
			if core.Enabled(tt.disabled) {
				t.Errorf("level %s should be disabled", tt.disabled)
			}
		})
	}
}
