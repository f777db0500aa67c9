// Connection reuse for exchanges against one target.
//
// The default is still a fresh connection per call, exactly as the protocol's
// original behavior; ConnPool is the opt-in alternative for callers issuing
// many exchanges against the same server manager.
//
// Pool design: a buffered channel as a natural FIFO queue. Buffered channels
// are concurrency-safe, and blocking on empty is built-in.

package mgmt

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// ConnPool is a borrow/return pool of TCP connections to a single target.
// It implements Dialer, so it plugs straight into Execute: Dial leases a
// connection, and Close on the leased connection returns it.
type ConnPool struct {
	mu       sync.Mutex
	conns    chan *poolConn
	target   Target
	maxConns int
	curConns int
	closed   bool
}

// poolConn wraps a net.Conn with lease bookkeeping. An exchange that hits
// any error marks the connection unusable, and Close then discards it —
// a stream that saw a protocol error is never reused.
type poolConn struct {
	net.Conn
	pool *ConnPool

	mu       sync.Mutex
	unusable bool
	released bool
}

// NewConnPool creates a pool for the given target with at most maxConns
// connections. Connections are created lazily, on demand.
func NewConnPool(target Target, maxConns int) *ConnPool {
	return &ConnPool{
		conns:    make(chan *poolConn, maxConns),
		target:   target.Normalize(),
		maxConns: maxConns,
	}
}

// Dial leases a connection:
//  1. an idle pooled connection if one is available,
//  2. else a new connection while under the limit,
//  3. else block until a lease is returned or ctx is done.
//
// At the capacity boundary the slot check and the claim are one atomic step
// (reserve), so a dialer that loses the slot race blocks for a returned
// lease like any other caller instead of failing.
func (p *ConnPool) Dial(ctx context.Context, target Target) (net.Conn, error) {
	if target.Addr != "" && target.Addr != p.target.Addr {
		return nil, fmt.Errorf("pool is bound to %s, cannot dial %s", p.target.Addr, target.Addr)
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("connection pool is closed")
	}
	p.mu.Unlock()

	for {
		select {
		case conn := <-p.conns:
			if conn.isUnusable() {
				conn.discard() // freed a slot; retry
				continue
			}
			return conn.lease(), nil
		default:
		}

		if p.reserve() {
			return p.createNew(ctx)
		}

		select {
		case conn := <-p.conns:
			if conn.isUnusable() {
				conn.discard()
				continue
			}
			return conn.lease(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// reserve atomically claims one connection slot. The caller must dial and
// wrap the connection, or undo the claim on dial failure.
func (p *ConnPool) reserve() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.curConns >= p.maxConns {
		return false
	}
	p.curConns++
	return true
}

// createNew dials against a slot already claimed by reserve.
func (p *ConnPool) createNew(ctx context.Context) (*poolConn, error) {
	netConn, err := (NetDialer{}).Dial(ctx, p.target)
	if err != nil {
		p.mu.Lock()
		p.curConns--
		p.mu.Unlock()
		return nil, err
	}
	return &poolConn{Conn: netConn, pool: p}, nil
}

// Close shuts down the pool and closes every idle connection. Leased
// connections are closed when their holders release them. The channel itself
// stays open so a late release cannot panic; it is discarded instead.
func (p *ConnPool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	for {
		select {
		case conn := <-p.conns:
			conn.Conn.Close()
			p.mu.Lock()
			p.curConns--
			p.mu.Unlock()
		default:
			return nil
		}
	}
}

// lease hands the connection out again, resetting the per-lease release
// flag so the new holder's Close is honored.
func (c *poolConn) lease() *poolConn {
	c.mu.Lock()
	c.released = false
	c.mu.Unlock()
	return c
}

// MarkUnusable flags the connection so it is discarded instead of pooled.
func (c *poolConn) MarkUnusable() {
	c.mu.Lock()
	c.unusable = true
	c.mu.Unlock()
}

func (c *poolConn) isUnusable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unusable
}

// Close releases the lease: unusable connections are discarded, healthy ones
// get their deadline cleared and go back to the pool. Releasing twice (the
// cancellation watcher and the exchange both close) is a no-op the second
// time, so the pool's accounting stays correct.
func (c *poolConn) Close() error {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return nil
	}
	c.released = true
	c.mu.Unlock()

	if c.isUnusable() {
		return c.discard()
	}
	if err := c.Conn.SetDeadline(time.Time{}); err != nil {
		return c.discard()
	}
	c.pool.mu.Lock()
	closed := c.pool.closed
	c.pool.mu.Unlock()
	if closed {
		return c.discard()
	}
	select {
	case c.pool.conns <- c:
		return nil
	default:
		// Pool buffer already full.
		return c.discard()
	}
}

func (c *poolConn) discard() error {
	c.pool.mu.Lock()
	c.pool.curConns--
	c.pool.mu.Unlock()
	return c.Conn.Close()
}
