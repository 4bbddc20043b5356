// Package logger configures the process-wide slog logger and threads the
// request id through context so every line logged during a request's
// lifetime carries the same correlation key. Components take a tagged logger
// once at construction via WithComponent; request-scoped code logs through
// FromContext.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type requestIDKey struct{}

// Setup installs the process logger. Unknown level or format values fall
// back to info and text rather than failing startup.
func Setup(level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// WithComponent returns a logger tagged with the subsystem name.
func WithComponent(name string) *slog.Logger {
	return slog.Default().With("component", name)
}

// WithRequestID stores the request id in the context. The request-id
// middleware calls this once per request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request id stored in the context, or the
// empty string outside a request.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}

// FromContext returns a logger carrying the request id when one is present.
func FromContext(ctx context.Context) *slog.Logger {
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		return slog.Default().With("request_id", requestID)
	}
	return slog.Default()
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
