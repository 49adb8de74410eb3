// Package logging defines the logging contract used across the server and
// an adapter for the standard library's structured logger.
package logging

import "context"

// Logger is the minimal structured-logging interface the server depends on.
// Args follow the slog convention of alternating keys and values.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a derived logger with the given attributes attached to
	// every record.
	With(args ...any) Logger
}
