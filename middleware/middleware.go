// Package middleware wraps the server manager's per-exchange handler in an
// onion-model chain: Chain(A, B, C)(handler) runs A.before → B.before →
// C.before → handler → C.after → B.after → A.after.
//
// A middleware that returns an error before calling next vetoes the exchange
// before any response byte is written; the server then closes the connection
// and the controller observes a failed call.
package middleware

import (
	"context"
	"io"
	"net"
)

// Exchange is one in-flight request on the server manager: the operation
// code already read from the wire, and the streams the handler decodes the
// payload from and writes the response to.
type Exchange struct {
	Op         byte
	RemoteAddr string
	Conn       net.Conn // for deadline control; handlers use In/Out
	In         io.Reader
	Out        io.Writer
}

type HandlerFunc func(ctx context.Context, ex *Exchange) error

type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middlewares into one, preserving registration order.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
