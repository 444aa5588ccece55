// Package logger provides structured logging on top of log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
)

// Level mirrors slog levels with local names.
type Level int

const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) slog() slog.Level {
	switch l {
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

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// LoggerInterface is the logging contract used across the application.
// Context is threaded through so handlers can attach trace information.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, keysAndValues ...any)
	Info(ctx context.Context, msg string, keysAndValues ...any)
	Warn(ctx context.Context, msg string, keysAndValues ...any)
	Error(ctx context.Context, msg string, keysAndValues ...any)
	With(keysAndValues ...any) LoggerInterface
}

// Logger implements LoggerInterface using a slog JSON handler.
type Logger struct {
	sl *slog.Logger
}

var _ LoggerInterface = (*Logger)(nil)

// New creates a Logger writing to w at the given level. The service name is
// attached to every record. Extra attrs may be nil.
func New(w io.Writer, level Level, service string, attrs []slog.Attr) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level.slog()})

	sl := slog.New(handler)
	if service != "" {
		sl = sl.With("service", service)
	}
	for _, a := range attrs {
		sl = sl.With(a)
	}

	return &Logger{sl: sl}
}

func (l *Logger) Debug(ctx context.Context, msg string, keysAndValues ...any) {
	l.sl.DebugContext(ctx, msg, keysAndValues...)
}

func (l *Logger) Info(ctx context.Context, msg string, keysAndValues ...any) {
	l.sl.InfoContext(ctx, msg, keysAndValues...)
}

func (l *Logger) Warn(ctx context.Context, msg string, keysAndValues ...any) {
	l.sl.WarnContext(ctx, msg, keysAndValues...)
}

func (l *Logger) Error(ctx context.Context, msg string, keysAndValues ...any) {
	l.sl.ErrorContext(ctx, msg, keysAndValues...)
}

// With returns a logger with additional persistent key/value pairs.
func (l *Logger) With(keysAndValues ...any) LoggerInterface {
	return &Logger{sl: l.sl.With(keysAndValues...)}
}
