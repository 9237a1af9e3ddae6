// Package ctxlog carries a slog.Logger through context.Context so every
// layer logs with the fields its caller attached.
package ctxlog

import (
	"context"
	"log/slog"
)

// key is an unexported type so no other package can collide with it.
type key struct{}

var loggerKey = key{}

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the slog.Logger from a context. Calling it on a
// context that never passed through WithLogger is a wiring bug and panics.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	panic("ctxlog: logger missing from context")
}
