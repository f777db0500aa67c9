// Package mgmt implements the domain controller's side of the server-manager
// management protocol: a blocking request/response envelope, one request
// variant per operation, and the client facade built on top of them.
//
// Control flow for one call:
//
//	Client ──builds──▶ request variant
//	                     │
//	                     ▼
//	Execute: dial ─▶ [handler id][op code][payload] ─▶ peer
//	              ◀─ [response code][payload] ◀───────
//	                     │
//	                     ▼
//	typed result, or a ManagementError wrapping the cause
package mgmt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"domain-mgmt/protocol"
)

// Request describes one operation's wire shape: its code pair, how to encode
// the request payload, and how to decode the typed response payload. A
// variant holds its captured arguments and nothing else.
type Request[T any] interface {
	RequestCode() byte
	ResponseCode() byte
	WritePayload(w io.Writer) error
	ReadPayload(r io.Reader) (T, error)
}

// unusable is implemented by pooled connections; marking one keeps the pool
// from ever handing it out again.
type unusable interface {
	MarkUnusable()
}

// Execute runs exactly one exchange against exactly one peer, blocking the
// calling goroutine until the round trip completes, fails, or the context is
// done.
//
// Contract:
//  1. Dial within target.ConnectTimeout; a failure here is ErrConnect and is
//     never retried by this layer.
//  2. Write handler discriminator, operation code, then the variant's payload
//     and flush the frame.
//  3. Expect the declared response code; anything else is
//     ErrProtocolMismatch — wire desynchronization or version skew, fatal.
//  4. Decode the payload via the variant's reader.
//  5. Release the connection whatever the outcome. A connection that saw any
//     error is marked unusable first, so a pool closes it instead of reusing
//     a possibly corrupted stream.
func Execute[T any](ctx context.Context, dialer Dialer, target Target, req Request[T]) (T, error) {
	var zero T
	target = target.Normalize()

	conn, err := dialer.Dial(ctx, target)
	if err != nil {
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%w: %w", ErrConnect, ctx.Err())
		}
		return zero, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	// Only a fully clean exchange leaves the connection reusable.
	clean := false
	defer func() {
		if !clean {
			if u, ok := conn.(unusable); ok {
				u.MarkUnusable()
			}
		}
		conn.Close()
	}()

	// Cancellation support: closing the connection is the only way to
	// unblock an in-flight read or write, so do exactly that when the
	// context is done. The exchange is then unfinished, so the stream must
	// not be pooled either.
	stop := context.AfterFunc(ctx, func() {
		if u, ok := conn.(unusable); ok {
			u.MarkUnusable()
		}
		conn.Close()
	})
	defer stop()

	// Absolute deadline for the whole exchange — the context deadline if it
	// is sooner. Reads can never block forever.
	deadline := time.Now().Add(target.ExchangeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return zero, fmt.Errorf("setting exchange deadline: %w", err)
	}

	bw := bufio.NewWriter(conn)
	if err := protocol.WriteByte(bw, protocol.ServerManagerRequest); err != nil {
		return zero, ctxErr(ctx, fmt.Errorf("writing handler id: %w", err))
	}
	if err := protocol.WriteByte(bw, req.RequestCode()); err != nil {
		return zero, ctxErr(ctx, fmt.Errorf("writing operation code: %w", err))
	}
	if err := req.WritePayload(bw); err != nil {
		return zero, ctxErr(ctx, fmt.Errorf("writing request payload: %w", err))
	}
	if err := bw.Flush(); err != nil {
		return zero, ctxErr(ctx, fmt.Errorf("flushing request: %w", err))
	}

	br := bufio.NewReader(conn)
	code, err := protocol.ReadByte(br)
	if err != nil {
		return zero, ctxErr(ctx, fmt.Errorf("reading response code: %w", err))
	}
	if code != req.ResponseCode() {
		return zero, fmt.Errorf("%w: expected response 0x%02x, received 0x%02x",
			ErrProtocolMismatch, req.ResponseCode(), code)
	}

	result, err := req.ReadPayload(br)
	if err != nil {
		if errors.Is(err, protocol.ErrInvalidToken) {
			return zero, fmt.Errorf("%w: %w", ErrProtocolMismatch, err)
		}
		return zero, ctxErr(ctx, fmt.Errorf("reading response payload: %w", err))
	}

	clean = true
	return result, nil
}

// ctxErr prefers the context's cancellation cause over the I/O error it
// provoked (closing the conn surfaces as "use of closed network connection").
func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w (%v)", ctx.Err(), err)
	}
	return err
}
