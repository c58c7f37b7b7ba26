// Package acceptor runs the TCP accept loop, performs the TLS handshake
// when configured, and serves each connection's HTTP traffic through a
// service.Bundle.
package acceptor

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"

	"github.com/ridgewayhq/ridgeway/pkg/log"
)

// Acceptor owns one listening socket and dispatches every accepted
// connection to handler. Whether it runs a TLS handshake is decided once,
// at construction, from whether tlsConfig is non-nil.
type Acceptor struct {
	listener  net.Listener
	tlsConfig *tls.Config
	handler   http.Handler
	logger    log.Logger

	handshakeTimeout time.Duration
}

// Option configures an Acceptor at construction.
type Option func(*Acceptor)

// WithTLS enables TLS (and, over it, HTTP/2 via ALPN) on every accepted
// connection.
func WithTLS(cfg *tls.Config) Option {
	return func(a *Acceptor) { a.tlsConfig = cfg }
}

// WithLogger attaches a logger for handshake and accept-loop failures.
func WithLogger(l log.Logger) Option {
	return func(a *Acceptor) { a.logger = l }
}

// WithHandshakeTimeout bounds how long the TLS handshake may take.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(a *Acceptor) { a.handshakeTimeout = d }
}

// New builds an Acceptor listening on addr.
func New(addr string, handler http.Handler, opts ...Option) (*Acceptor, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("acceptor: listen %s: %w", addr, err)
	}
	a := &Acceptor{
		listener:         ln,
		handler:          handler,
		logger:           log.Default(),
		handshakeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.tlsConfig != nil && a.tlsConfig.NextProtos == nil {
		a.tlsConfig.NextProtos = []string{"h2", "http/1.1"}
	}
	return a, nil
}

// Addr returns the address the acceptor is listening on.
func (a *Acceptor) Addr() net.Addr { return a.listener.Addr() }

// Run accepts connections until the listener is closed, spawning one
// goroutine per connection. It returns nil when the listener is closed
// deliberately (Close), and the underlying error otherwise.
func (a *Acceptor) Run() error {
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if isClosedErr(err) {
				return nil
			}
			return fmt.Errorf("acceptor: accept: %w", err)
		}
		go a.serve(conn)
	}
}

// Close stops accepting new connections.
func (a *Acceptor) Close() error {
	return a.listener.Close()
}

func (a *Acceptor) serve(conn net.Conn) {
	if a.tlsConfig != nil {
		tlsConn := tls.Server(conn, a.tlsConfig)
		if err := a.handshake(tlsConn); err != nil {
			a.logger.Warn("tls handshake failed",
				log.String("peer", conn.RemoteAddr().String()),
				log.Err(err))
			conn.Close()
			return
		}
		if tlsConn.ConnectionState().NegotiatedProtocol == http2.NextProtoTLS {
			(&http2.Server{}).ServeConn(tlsConn, &http2.ServeConnOpts{Handler: a.handler})
			return
		}
		conn = tlsConn
	}

	ln := newSingleConnListener(conn)
	srv := &http.Server{Handler: a.handler}
	if a.tlsConfig != nil {
		if err := http2.ConfigureServer(srv, &http2.Server{}); err != nil {
			a.logger.Warn("http2 configuration failed", log.Err(err))
		}
	}
	if err := srv.Serve(ln); err != nil && !isClosedErr(err) {
		a.logger.Debug("connection serve ended",
			log.String("peer", conn.RemoteAddr().String()),
			log.Err(err))
	}
}

func (a *Acceptor) handshake(tlsConn *tls.Conn) error {
	if a.handshakeTimeout > 0 {
		if err := tlsConn.SetDeadline(timeNow().Add(a.handshakeTimeout)); err != nil {
			return err
		}
		defer tlsConn.SetDeadline(time.Time{})
	}
	return tlsConn.Handshake()
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, errAlreadyConsumed) || errors.Is(err, http.ErrServerClosed)
}

// timeNow is a var, not a direct time.Now() call, so tests can stub it if
// a deterministic handshake deadline is ever needed.
var timeNow = time.Now
