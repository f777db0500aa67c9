package middleware

import (
	"context"
	"time"
)

// TimeoutMiddleware bounds one exchange. The handler reads and writes the
// connection directly, so cancellation works through the socket deadline:
// when it fires, the blocked read or write inside the handler errors out.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, ex *Exchange) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			if ex.Conn != nil {
				if err := ex.Conn.SetDeadline(time.Now().Add(timeout)); err != nil {
					return err
				}
				// Reset so a later exchange on the same connection
				// gets its own full window.
				defer ex.Conn.SetDeadline(time.Time{})
			}
			return next(ctx, ex)
		}
	}
}
