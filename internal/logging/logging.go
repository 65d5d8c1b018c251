// Package logging configures the process-wide structured logger. The core
// packages never construct their own *slog.Logger; they call slog's
// package-level functions (slog.Info, slog.Warn, ...) against whatever
// default logger Setup installed, the same convention the rest of the
// pack's Go services use.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls how the default logger is constructed.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string

	// Output is the destination for log records. Defaults to os.Stderr
	// when nil.
	Output io.Writer
}

// DefaultConfig returns the configuration used when none is supplied:
// INFO level to stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Output: os.Stderr}
}

// Setup builds a JSON slog.Logger from cfg and installs it as the process
// default, returning the logger for callers that prefer to hold their own
// reference.
func Setup(cfg Config) *slog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel converts a level name from config.Config.LogLevel into a
// slog.Level, defaulting to Info for unrecognized input.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
