package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogSizeMB  = 10
	maxLogBackups = 5
	maxLogAgeDays = 14
)

// NewLogger builds the process logger and installs it as the slog default.
// Logs go to stdout unless a file is configured, in which case they rotate.
func NewLogger(cfg LogConfig) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}

	var out io.Writer = os.Stdout
	var setupErr error
	if path := strings.TrimSpace(cfg.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			setupErr = err
		} else {
			out = &lumberjack.Logger{
				Filename:   path,
				MaxSize:    maxLogSizeMB,
				MaxBackups: maxLogBackups,
				MaxAge:     maxLogAgeDays,
				Compress:   true,
			}
		}
	}

	logger := slog.New(newHandler(cfg.Format, out, opts))
	slog.SetDefault(logger)
	return logger, setupErr
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(format string, out io.Writer, opts *slog.HandlerOptions) slog.Handler {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text":
		return slog.NewTextHandler(out, opts)
	default:
		return slog.NewJSONHandler(out, opts)
	}
}
