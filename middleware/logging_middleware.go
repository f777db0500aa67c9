package middleware

import (
	"context"
	"log/slog"
	"time"

	"domain-mgmt/protocol"
)

// LoggingMiddleware logs one line per exchange: operation, peer, duration,
// and the error when the exchange failed.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, ex *Exchange) error {
			start := time.Now()
			err := next(ctx, ex)
			attrs := []any{
				slog.String("op", protocol.OperationName(ex.Op)),
				slog.String("remote", ex.RemoteAddr),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.Error("exchange failed", append(attrs, slog.Any("error", err))...)
				return err
			}
			logger.Info("exchange completed", attrs...)
			return nil
		}
	}
}
