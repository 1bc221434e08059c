// Package logging builds the zerolog logger shared by the client and the
// controller.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing JSON lines to w. Verbose enables debug level.
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// NewConsole returns a human-readable logger for line-oriented commands
func NewConsole(w io.Writer, verbose bool) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return New(out, verbose)
}

// OpenFile opens (or creates) the log file at path in append mode and
// returns a logger writing to it together with a close function.
// The TUI owns the terminal, so it logs here instead of stderr.
func OpenFile(path string, verbose bool) (zerolog.Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return New(f, verbose), f.Close, nil
}

// Nop returns a disabled logger
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
