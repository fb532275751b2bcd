// Package logging builds the slog loggers used by the enigma command.
//
// Logs go to stderr by default so they never mix with ciphertext or search
// results on stdout. Text output is the default; JSON is available for
// feeding logs to other tools.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ErrUnknownLevel is returned by ParseLevel for names it does not know.
var ErrUnknownLevel = errors.New("unknown log level")

// Config selects the level, format and destination of a logger.
type Config struct {
	// Level is one of "debug", "info", "warn" or "error". Empty means info.
	Level string

	// JSON switches from the text handler to the JSON handler.
	JSON bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// ParseLevel maps a level name to its slog level. Names are
// case-insensitive and "warning" is accepted for "warn".
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, name)
	}
}

// New returns a logger for cfg.
func New(cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.JSON {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return slog.New(h), nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
