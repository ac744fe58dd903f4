package logger

import (
	"io"
	"log/slog"
	"os"
)

const (
	EnvLocal = "local"
	EnvProd  = "production"
	EnvTest  = "test"
	EnvDev   = "development"
)

func SetupLogger(env string) *slog.Logger {
	return New(env, os.Stdout)
}

// New builds the process logger for env: text for local work, JSON
// everywhere else, debug level outside production.
func New(env string, w io.Writer) *slog.Logger {
	var h slog.Handler
	switch env {
	case EnvLocal:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	case EnvTest, EnvDev:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	case EnvProd:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(h).With("service", "pagesbot")
}
