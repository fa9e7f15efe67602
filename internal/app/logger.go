package app

import (
	"io"
	"log/slog"
	"strings"
)

// parseLevel maps a level name to a slog level. It reports false for names
// it does not know.
func parseLevel(levelStr string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// newLogger builds the app logger without touching the global one. Unknown
// levels log at info and say so.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	level, known := parseLevel(levelStr)
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	logger := slog.New(handler)
	if !known {
		logger.Warn("Unknown log level, using info.", "level", levelStr)
	}
	return logger
}
