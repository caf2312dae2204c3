// Package logging builds the structured logger used across toth.
//
// Logs go to stderr so that stdout stays reserved for stable command output.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/NielsdaWheelz/toth/internal/errors"
)

// Format selects the slog handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config holds logger settings.
type Config struct {
	Level  string // debug, info, warn, error
	Format Format
}

// ParseLevel converts a level name to a slog.Level.
// Empty input means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errors.NewWithDetails(errors.EInvalidConfig, "unknown log level: "+name,
		map[string]string{"key": "log.level"})
}

// New returns a logger writing to w.
func New(w io.Writer, cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	case FormatText, "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, errors.NewWithDetails(errors.EInvalidConfig, "unknown log format: "+string(cfg.Format),
			map[string]string{"key": "log.format"})
	}
	return slog.New(handler), nil
}

// Discard returns a logger that drops every record. Used as the default for
// library callers and tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
