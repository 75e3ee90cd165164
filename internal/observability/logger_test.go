package observability

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/eia-switch-etl/internal/config"
)

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		level  string
		format string
		want   slog.Level
	}{
		{"debug", "json", slog.LevelDebug},
		{"INFO", "json", slog.LevelInfo},
		{"warning", "text", slog.LevelWarn},
		{"error", "text", slog.LevelError},
		{"verbose", "json", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			t.Cleanup(func() { slog.SetDefault(slog.New(slog.DiscardHandler)) })

			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: tt.format})
			require.NotNil(t, logger)
			assert.Equal(t, tt.want, handlerLevel(logger.Handler()))
			assert.Same(t, logger.Handler(), slog.Default().Handler())
		})
	}
}

func TestNewTextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newTextLogger(&buf, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("download skipped", "file", "eia8602018.zip")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "download skipped")
	assert.Contains(t, buf.String(), "eia8602018.zip")
}
