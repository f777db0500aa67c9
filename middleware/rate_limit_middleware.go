package middleware

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitMiddleware gates exchanges with a token bucket. A rejected
// exchange never writes a response byte, so the controller sees the call
// fail rather than a malformed frame.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, ex *Exchange) error {
			if !limiter.Allow() {
				return fmt.Errorf("rate limit exceeded")
			}
			return next(ctx, ex)
		}
	}
}
