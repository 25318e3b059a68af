package log

import (
	"log/slog"
	"os"
	"time"
)

// Logger is the interface for kestrel logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// logger wraps slog.Logger.
type logger struct {
	slog *slog.Logger
}

var (
	// Default logger instance
	defaultLogger Logger
)

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	defaultLogger = &logger{slog: slog.New(handler)}
}

// SetDefault sets the default logger.
func SetDefault(l Logger) {
	defaultLogger = l
}

// Default returns the default logger.
func Default() Logger {
	return defaultLogger
}

// New creates a new logger with the given handler.
func New(handler slog.Handler) Logger {
	return &logger{slog: slog.New(handler)}
}

// NewTextLogger creates a new text logger.
func NewTextLogger(level slog.Level) Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}
	handler := slog.NewTextHandler(os.Stderr, opts)
	return &logger{slog: slog.New(handler)}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() Logger {
	return &logger{slog: slog.New(discardHandler{})}
}

func (l *logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

func (l *logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

func (l *logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

func (l *logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

func (l *logger) With(args ...any) Logger {
	return &logger{slog: l.slog.With(args...)}
}

// Helper functions for structured logging

// String returns a string attribute.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Int returns an int attribute.
func Int(key string, value int) slog.Attr {
	return slog.Int(key, value)
}

// Uint64 returns a uint64 attribute.
func Uint64(key string, value uint64) slog.Attr {
	return slog.Uint64(key, value)
}

// Float64 returns a float64 attribute.
func Float64(key string, value float64) slog.Attr {
	return slog.Float64(key, value)
}

// Bool returns a bool attribute.
func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

// Duration returns a duration attribute.
func Duration(key string, value time.Duration) slog.Attr {
	return slog.Duration(key, value)
}

// Package-level convenience functions

func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}
