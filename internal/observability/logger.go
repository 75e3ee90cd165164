package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/lmittmann/tint"

	"github.com/couchcryptid/eia-switch-etl/internal/config"
)

// NewLogger builds the service logger from LOG_LEVEL and LOG_FORMAT and sets
// it as the slog default. JSON is the default; "text" selects a colorized
// handler for terminals.
func NewLogger(cfg *config.Config) *slog.Logger {
	logger := sharedobs.NewLogger(cfg.LogLevel, "json")
	if !strings.EqualFold(cfg.LogFormat, "text") {
		return logger
	}
	logger = newTextLogger(os.Stdout, handlerLevel(logger.Handler()))
	slog.SetDefault(logger)
	return logger
}

func newTextLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

// handlerLevel returns the lowest level h accepts.
func handlerLevel(h slog.Handler) slog.Level {
	for _, lvl := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if h.Enabled(context.Background(), lvl) {
			return lvl
		}
	}
	return slog.LevelError
}
