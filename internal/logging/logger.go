// Package logging is the structured logger passed through services, the
// gRPC server and the command-line tools. SlogLogger is the only
// implementation.
package logging

import "context"

// Logger takes a message plus alternating key and value arguments:
//
//	log.Info(ctx, "card sold", "card_id", id, "order_id", orderID)
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)

	// Warn is used for values that could not be decrypted and for other
	// recoverable conditions.
	Warn(ctx context.Context, msg string, args ...any)

	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that adds args to every record.
	With(args ...any) Logger
}
