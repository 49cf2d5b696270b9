package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/SohailShaikh7860/ai-agent-cli/src/config"
	"github.com/lmittmann/tint"
)

// createSessionLogger writes JSON logs to a file so log lines never mix
// with the interactive transcript on stdout.
func createSessionLogger(logLevel string) *slog.Logger {
	paths := config.GetDefaultStoragePaths()

	if err := os.MkdirAll(paths.LogDir, 0755); err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	logFile := filepath.Join(paths.LogDir, "aiagent.log")
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	return slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level: parseLogLevel(logLevel),
	}))
}

// createCLILogger writes colorized logs to stderr for one-shot commands.
func createCLILogger(logLevel string) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: parseLogLevel(logLevel),
	}))
}

func parseLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
