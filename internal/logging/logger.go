// Package logging provides structured logging for MARS debate runs.
// It wraps log/slog to produce JSON-formatted logs with chained
// attributes (provider, round, phase) for post-hoc analysis of a run.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Log levels supported by the logger.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Logger provides structured logging with chained attributes.
// It is safe for concurrent use.
type Logger struct {
	logger *slog.Logger
	file   *os.File
}

// NewLogger creates a Logger that writes JSON-formatted logs to
// {runDir}/debug.log. If runDir is empty, logs go to stderr. The level
// parameter controls which messages are logged; unrecognised levels
// default to INFO.
func NewLogger(runDir, level string) (*Logger, error) {
	var handler slog.Handler
	var file *os.File

	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	if runDir != "" {
		if err := os.MkdirAll(runDir, 0o755); err != nil {
			return nil, fmt.Errorf("logging: create run directory: %w", err)
		}
		var err error
		file, err = os.OpenFile(filepath.Join(runDir, "debug.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logging: open log file: %w", err)
		}
		handler = slog.NewJSONHandler(file, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return &Logger{logger: slog.New(handler), file: file}, nil
}

// Discard returns a Logger that drops all records. Useful as a default
// when callers do not care about diagnostics.
func Discard() *Logger {
	return &Logger{logger: slog.New(slog.DiscardHandler)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithProvider returns a child Logger with the provider name attached to
// all log entries.
func (l *Logger) WithProvider(provider string) *Logger {
	return &Logger{logger: l.logger.With("provider", provider), file: l.file}
}

// WithRound returns a child Logger with the round number attached to all
// log entries.
func (l *Logger) WithRound(round int) *Logger {
	return &Logger{logger: l.logger.With("round", round), file: l.file}
}

// WithPhase returns a child Logger with the phase name attached to all
// log entries. Phases include "initial", "critique", "synthesis",
// "judge", and "analysis".
func (l *Logger) WithPhase(phase string) *Logger {
	return &Logger{logger: l.logger.With("phase", phase), file: l.file}
}

// Debug logs a message at DEBUG level with optional key-value pairs.
func (l *Logger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// Info logs a message at INFO level with optional key-value pairs.
func (l *Logger) Info(msg string, args ...any) { l.logger.Info(msg, args...) }

// Warn logs a message at WARN level with optional key-value pairs.
func (l *Logger) Warn(msg string, args ...any) { l.logger.Warn(msg, args...) }

// Error logs a message at ERROR level with optional key-value pairs.
func (l *Logger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// Close flushes and closes the underlying log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
