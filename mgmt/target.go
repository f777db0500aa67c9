package mgmt

import (
	"context"
	"net"
	"time"
)

// Default timeouts, applied by Normalize when the caller leaves a field zero.
const (
	DefaultConnectTimeout  = 10 * time.Second
	DefaultExchangeTimeout = 30 * time.Second
)

// Target identifies one server manager endpoint. Immutable per client
// instance and shared read-only by every exchange issued through it.
type Target struct {
	Addr            string        // host:port of the server manager
	ConnectTimeout  time.Duration // bound on connection establishment
	ExchangeTimeout time.Duration // bound on the whole round trip (write + read)
}

// Normalize fills in default timeouts for zero fields.
func (t Target) Normalize() Target {
	if t.ConnectTimeout <= 0 {
		t.ConnectTimeout = DefaultConnectTimeout
	}
	if t.ExchangeTimeout <= 0 {
		t.ExchangeTimeout = DefaultExchangeTimeout
	}
	return t
}

// Dialer produces the connection an exchange runs over. The default dials a
// fresh TCP connection per call; ConnPool reuses them. Each exchange owns its
// connection (or lease) for its whole duration, so concurrent exchanges share
// no mutable state.
type Dialer interface {
	Dial(ctx context.Context, target Target) (net.Conn, error)
}

// NetDialer is the connection-per-call default.
type NetDialer struct{}

func (NetDialer) Dial(ctx context.Context, target Target) (net.Conn, error) {
	d := net.Dialer{Timeout: target.ConnectTimeout}
	return d.DialContext(ctx, "tcp", target.Addr)
}
