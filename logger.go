package vectable

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with table-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogResize logs a resize operation and the keys it dropped.
func (l *Logger) LogResize(rows, dims, dropped int) {
	l.Info("table resized",
		"rows", rows,
		"dims", dims,
		"dropped_keys", dropped,
	)
}

// LogSearch logs a similarity search.
func (l *Logger) LogSearch(ctx context.Context, queries, n int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "similarity search failed",
			"queries", queries,
			"n", n,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "similarity search completed",
			"queries", queries,
			"n", n,
		)
	}
}

// LogSnapshot logs an artifact save/load.
func (l *Logger) LogSnapshot(ctx context.Context, name string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"artifact", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot written",
			"artifact", name,
			"bytes", size,
		)
	}
}
