package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/opsforge/conveyor/internal/config"
)

// Setup initializes the worker's logging based on the provided
// configuration: a structured JSON logger at the configured level,
// installed as the process default. An unrecognized level falls back
// to info with a warning.
func Setup(cfg config.WorkerConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
		tmp := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tmp.Warn("invalid log level configured, using default",
			"configured_level", cfg.LogLevel,
			"default_level", "info")
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
