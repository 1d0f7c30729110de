// Package tcp implements transport.Sender over a single lazily opened TCP
// connection with TCP_NODELAY enabled.
package tcp

import (
	"context"
	"io"
	"net"
	"sync"

	"go.uber.org/zap"

	"logship/pkg/transport"
)

// DialFunc opens a stream connection; it matches (*net.Dialer).DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Options tunes a Sender. The zero value is usable.
type Options struct {
	Logger *zap.Logger
	// Dial replaces the default net.Dialer, mostly for tests.
	Dial DialFunc
}

// Sender owns at most one connection to its endpoint. The connection is
// opened by the first Send, reused while writes succeed, and dropped on the
// first connect or write failure so the next Send dials again.
//
// Send and Close hold mu for their whole body: the open-then-write sequence
// must not interleave with another writer or with a concurrent close.
type Sender struct {
	ep   transport.Endpoint
	dial DialFunc
	log  *zap.Logger

	mu   sync.Mutex
	conn net.Conn
}

var _ transport.Sender = (*Sender)(nil)

// New returns a Sender for host:port. An empty host or a zero port take
// transport.DefaultHost / transport.DefaultPort. No connection is opened.
func New(host string, port int) *Sender {
	return NewWithOptions(host, port, Options{})
}

func NewWithOptions(host string, port int, opts Options) *Sender {
	s := &Sender{ep: transport.NewEndpoint(host, port), dial: opts.Dial, log: opts.Logger}
	if s.dial == nil {
		d := &net.Dialer{}
		s.dial = d.DialContext
	}
	if s.log == nil {
		s.log = zap.L()
	}
	s.log = s.log.Named("tcp-sender").With(zap.String("endpoint", s.ep.Address()))
	return s
}

func (s *Sender) Endpoint() transport.Endpoint { return s.ep }
func (s *Sender) Host() string { return s.ep.Host }
func (s *Sender) Port() int { return s.ep.Port }

// Connected reports whether a connection is currently cached.
func (s *Sender) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Send writes the whole of data to the endpoint, connecting first if needed.
// Errors are *transport.Error with Kind ConnectFailure or WriteFailure; in
// both cases the Sender is left disconnected.
func (s *Sender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("send", zap.String("host", s.ep.Host), zap.Int("port", s.ep.Port), zap.Int("bytes", len(data)))

	c, err := s.getOrOpen()
	if err != nil {
		return err
	}
	if err := writeFull(c, data); err != nil {
		s.invalidate(err)
		return transport.NewError(transport.WriteFailure, s.ep, err)
	}
	return nil
}

// Close closes the cached connection, if any. The reference is cleared even
// when the underlying close fails; that failure is returned as CloseFailure.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.conn
	if c == nil {
		return nil
	}
	s.conn = nil
	if err := c.Close(); err != nil {
		return transport.NewError(transport.CloseFailure, s.ep, err)
	}
	s.log.Debug("closed")
	return nil
}

// getOrOpen must be called with mu held.
func (s *Sender) getOrOpen() (net.Conn, error) {
	if s.conn != nil {
		return s.conn, nil
	}
	c, err := s.dial(context.Background(), "tcp", s.ep.Address())
	if err != nil {
		return nil, transport.NewError(transport.ConnectFailure, s.ep, err)
	}
	if nd, ok := c.(interface{ SetNoDelay(bool) error }); ok {
		if err := nd.SetNoDelay(true); err != nil {
			_ = c.Close()
			return nil, transport.NewError(transport.ConnectFailure, s.ep, err)
		}
	}
	s.conn = c
	s.log.Debug("connected", zap.Stringer("local", c.LocalAddr()))
	return c, nil
}

// invalidate drops the cached connection after a failed write; mu held.
func (s *Sender) invalidate(cause error) {
	if s.conn == nil {
		return
	}
	_ = s.conn.Close()
	s.conn = nil
	s.log.Debug("connection invalidated", zap.Error(cause))
}

func writeFull(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		b = b[n:]
	}
	return nil
}
