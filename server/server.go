// Package server implements the server-manager side of the management
// protocol: the peer that receives configuration pushes from the domain
// controller and applies them to its local models.
//
// Exchange pipeline, per connection:
//
//	Accept conn → handleConn (sequential read loop)
//	  → [handler id][op code] → middleware chain → operation handler
//	    → decode payload → apply to store → [response code][payload]
//
// Exchanges on one connection run strictly in sequence — the protocol is one
// request, one response, no interleaving — but different connections are
// served concurrently, one goroutine each.
package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"domain-mgmt/codec"
	"domain-mgmt/middleware"
	"domain-mgmt/model"
	"domain-mgmt/protocol"
	"domain-mgmt/registry"
)

// Server accepts management connections and dispatches operations against
// the local model store.
type Server struct {
	store       *model.Store
	codec       codec.Codec
	operations  map[byte]operation
	listener    net.Listener
	wg          sync.WaitGroup // in-flight exchanges, for graceful shutdown
	shutdown    atomic.Bool    // suppresses the Accept error raised by Close
	middlewares []middleware.Middleware
	handler     middleware.HandlerFunc
	registry    registry.Registry // nil when not using discovery
	advertise   string            // address registered in etcd; needs a routable IP
	logger      *slog.Logger

	// RegistryTTL is the lease TTL in seconds used when registering;
	// zero means the 10-second default.
	RegistryTTL int64
}

// operation binds an op code to the handler that decodes its payload,
// applies it, and writes the response.
type operation func(ctx context.Context, in io.Reader, out io.Writer) error

// NewServer creates a server manager serving the given store.
func NewServer(store *model.Store, codecType codec.CodecType, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	svr := &Server{
		store:  store,
		codec:  codec.GetCodec(codecType),
		logger: logger,
	}
	svr.operations = map[byte]operation{
		protocol.UpdateFullDomainRequest:  svr.handleUpdateFullDomain,
		protocol.UpdateDomainModelRequest: svr.handleUpdateDomainModel,
		protocol.UpdateHostModelRequest:   svr.handleUpdateHostModel,
		protocol.UpdateServerModelRequest: svr.handleUpdateServerModel,
		protocol.IsActiveRequest:          svr.handleIsActive,
	}
	return svr
}

// Use registers a middleware. Middlewares apply in the order they are added.
func (svr *Server) Use(mw middleware.Middleware) {
	svr.middlewares = append(svr.middlewares, mw)
}

// Serve listens on the given address, optionally registers this server
// manager's host in the registry, and runs the accept loop until Shutdown.
//
// advertiseAddr is what goes into the registry (e.g. "10.0.0.5:9999") and
// may differ from the listen address (":9999").
func (svr *Server) Serve(network, address, advertiseAddr string, reg registry.Registry) error {
	listener, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	svr.listener = listener

	// Build the chain once, not per exchange.
	svr.handler = middleware.Chain(svr.middlewares...)(svr.dispatch)

	svr.advertise = advertiseAddr
	if reg != nil {
		svr.registry = reg
		ttl := svr.RegistryTTL
		if ttl <= 0 {
			ttl = 10
		}
		err := reg.Register(svr.store.HostName(), registry.ManagerInstance{Addr: advertiseAddr}, ttl)
		if err != nil {
			listener.Close()
			return fmt.Errorf("registering server manager: %w", err)
		}
	}

	svr.logger.Info("server manager listening",
		slog.String("addr", listener.Addr().String()),
		slog.String("host", svr.store.HostName()))

	for {
		conn, err := listener.Accept()
		if err != nil {
			// Shutdown closes the listener, which surfaces here as an
			// Accept error; that one is intentional.
			if svr.shutdown.Load() {
				return nil
			}
			return err
		}
		go svr.handleConn(conn)
	}
}

// handleConn serves exchanges from one connection until the peer closes it
// or an exchange fails. A connection-per-call controller sends one exchange
// and closes; a pooling controller keeps the connection and sends more.
func (svr *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	br := bufio.NewReader(conn)

	for {
		discriminator, err := protocol.ReadByte(br)
		if err != nil {
			return // peer closed between exchanges
		}
		if discriminator != protocol.ServerManagerRequest {
			svr.logger.Warn("unknown handler discriminator, dropping connection",
				slog.String("remote", remote),
				slog.Int("discriminator", int(discriminator)))
			return
		}
		op, err := protocol.ReadByte(br)
		if err != nil {
			svr.logger.Warn("connection lost before operation code",
				slog.String("remote", remote), slog.Any("error", err))
			return
		}

		ex := &middleware.Exchange{
			Op:         op,
			RemoteAddr: remote,
			Conn:       conn,
			In:         br,
			Out:        conn,
		}

		svr.wg.Add(1)
		err = svr.handler(context.Background(), ex)
		svr.wg.Done()
		if err != nil {
			// The stream may be desynchronized; drop the connection
			// rather than attempt recovery mid-grammar.
			svr.logger.Warn("exchange aborted, dropping connection",
				slog.String("remote", remote),
				slog.String("op", protocol.OperationName(op)),
				slog.Any("error", err))
			return
		}
	}
}

// dispatch is the innermost handler: route the op code to its operation and
// flush the buffered response once it completed cleanly. Nothing is written
// for an unknown op, so the controller sees the connection drop instead of a
// bogus response code.
func (svr *Server) dispatch(ctx context.Context, ex *middleware.Exchange) error {
	op, ok := svr.operations[ex.Op]
	if !ok {
		return fmt.Errorf("unknown operation code 0x%02x", ex.Op)
	}
	bw := bufio.NewWriter(ex.Out)
	if err := op(ctx, ex.In, bw); err != nil {
		return err
	}
	return bw.Flush()
}

// Shutdown stops the server gracefully:
//  1. deregister, so the domain controller stops resolving this manager
//  2. set the shutdown flag, then close the listener
//  3. wait for in-flight exchanges, bounded by timeout
func (svr *Server) Shutdown(timeout time.Duration) error {
	if svr.registry != nil {
		if err := svr.registry.Deregister(svr.store.HostName(), svr.advertise); err != nil {
			svr.logger.Warn("deregister failed", slog.Any("error", err))
		}
	}

	// Flag before Close: otherwise Serve sees the Accept error first and
	// reports a real failure.
	svr.shutdown.Store(true)
	if svr.listener != nil {
		svr.listener.Close()
	}

	done := make(chan struct{})
	go func() {
		svr.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for in-flight exchanges to finish")
	}
}
