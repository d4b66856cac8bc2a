// Package observability provides logging initialization.
package observability

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"golang.org/x/term"

	"github.com/waxcrate/waxcrate/internal/config"
)

// InitSlog initializes a logger with the given config. When running in a
// terminal it uses a tinted human-readable format; otherwise it uses JSON
// for structured logging.
func InitSlog(cfg *config.Config) *slog.Logger {
	level := toLogLevel(cfg.LogLevel)
	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			AddSource: cfg.DevMode,
			Level:     level,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			AddSource: cfg.DevMode,
			Level:     level,
		})
	}
	return slog.New(handler)
}

func toLogLevel(lvl string) slog.Level {
	switch lvl {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
