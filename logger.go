package simgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with simgo-specific context.
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
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithID adds an ID field to the logger (useful for tagging operations).
func (l *Logger) WithID(id uint32) *Logger {
	return &Logger{
		Logger: l.Logger.With("id", id),
	}
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// LogPut logs a put operation.
func (l *Logger) LogPut(ctx context.Context, id uint32, features int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "put failed",
			"id", id,
			"features", features,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "put completed",
			"id", id,
			"features", features,
		)
	}
}

// LogBatchPut logs a batch put operation.
func (l *Logger) LogBatchPut(ctx context.Context, count, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "batch put completed with failures",
			"total", count,
			"failed", failed,
			"success", count-failed,
		)
	} else {
		l.InfoContext(ctx, "batch put completed",
			"count", count,
		)
	}
}

// LogKNN logs a k-nearest-neighbor query.
func (l *Logger) LogKNN(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "knn query failed",
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "knn query completed",
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogNearest logs a nearest-neighbor query.
func (l *Logger) LogNearest(ctx context.Context, found bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "nearest query failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "nearest query completed",
			"found", found,
		)
	}
}

// LogRange logs a range query.
func (l *Logger) LogRange(ctx context.Context, maxDistance, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "range query failed",
			"max_distance", maxDistance,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "range query completed",
			"max_distance", maxDistance,
			"results", resultsFound,
		)
	}
}
