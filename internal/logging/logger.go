// Package logging defines the structured logger used across the service.
// Implementations wrap log/slog; call sites depend only on Logger.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are key-value pairs:
//
//	log.Info(ctx, "user logged in", "user_id", id)
//
// Secrets (passwords, hashes, one-time tokens, session tokens) must never be
// passed as args.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}
