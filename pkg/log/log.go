// Package log carries a *slog.Logger through context so request- and
// scenario-scoped attributes follow the work they describe.
package log

import (
	"context"
	"log/slog"
	"os"
)

var (
	defaultLogLevel slog.LevelVar
	defaultLogger   = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: &defaultLogLevel,
	}))
)

func init() {
	defaultLogLevel.Set(slog.LevelInfo)
}

type contextKey struct{}

var loggerKey = contextKey{}

// Ctx returns the logger carried by the context, or the package default when
// the context carries none.
func Ctx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return defaultLogger
}

// With returns a context carrying the given logger.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// Attach derives a child logger with the given attributes from whatever the
// context already carries and returns a context carrying it. Every log call
// further down the call chain picks the attributes up automatically.
func Attach(ctx context.Context, args ...any) context.Context {
	return With(ctx, Ctx(ctx).With(args...))
}

// SetDefaultLogLevel adjusts the level of the fallback logger returned by
// Ctx for contexts without an attached logger.
func SetDefaultLogLevel(level slog.Level) {
	defaultLogLevel.Set(level)
}
