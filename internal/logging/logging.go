// Package logging provides structured logging on top of log/slog.
// The server initializes it once from configuration; everything else
// uses the package-level helpers.
package logging

import (
	"fmt"
	"log/slog"
	"os"
)

// Init installs the process-wide logger. Level is one of debug, info,
// warn, error; format is json or text.
func Init(level, format string) error {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return fmt.Errorf("`%s` is not a valid log level", level)
	}
	options := &slog.HandlerOptions{Level: slogLevel}
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, options)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, options)
	default:
		return fmt.Errorf("`%s` is not a valid log format", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// Debug logs at debug level.
func Debug(msg string, args ...any) { slog.Debug(msg, args...) }

// Info logs at info level.
func Info(msg string, args ...any) { slog.Info(msg, args...) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { slog.Warn(msg, args...) }

// Error logs at error level.
func Error(msg string, args ...any) { slog.Error(msg, args...) }
