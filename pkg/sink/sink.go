// Package sink provides a recording TCP endpoint: it accepts connections and
// captures every byte received on each of them, in order.
package sink

import (
	"bytes"
	"errors"
	"net"
	"strconv"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Options tunes a Sink. The zero value is usable.
type Options struct {
	Logger *zap.Logger
	// OnData is called from the connection's reader goroutine for each chunk
	// read. id is the connection's index in accept order, starting at 0.
	// The slice is only valid for the duration of the call.
	OnData func(id int, b []byte)
	// OnClose is called once a connection's reader has finished.
	OnClose func(id int)
	// Discard skips buffering received bytes and forgets a connection as soon
	// as it ends. Long-running sinks that only consume OnData should set it.
	Discard bool
}

// Sink accepts TCP connections and records what they send.
type Sink struct {
	l      net.Listener
	opts   Options
	log    *zap.Logger
	closed chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	accepted atomic.Int64
	received atomic.Int64

	mu    sync.Mutex
	conns []*Conn
}

// Conn is the record of one accepted connection.
type Conn struct {
	ID     int
	Remote net.Addr

	c      net.Conn
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

// Bytes returns a copy of everything received so far.
func (c *Conn) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.buf.Bytes()...)
}

// Len returns the number of bytes buffered so far; always 0 with Options.Discard.
func (c *Conn) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Len()
}

// Closed reports whether the peer closed the connection (or the sink did).
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Listen starts accepting on address (e.g. "127.0.0.1:0").
func Listen(address string, opts Options) (*Sink, error) {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	s := &Sink{l: l, opts: opts, log: opts.Logger, closed: make(chan struct{})}
	if s.log == nil {
		s.log = zap.L()
	}
	s.log = s.log.Named("sink")
	s.wg.Add(1)
	go s.acceptLoop()
	s.log.Info("listening", zap.String("addr", l.Addr().String()))
	return s, nil
}

func (s *Sink) Addr() net.Addr { return s.l.Addr() }

// Host returns the listening IP as a string.
func (s *Sink) Host() string {
	host, _, _ := net.SplitHostPort(s.l.Addr().String())
	return host
}

// Port returns the listening port.
func (s *Sink) Port() int {
	_, p, _ := net.SplitHostPort(s.l.Addr().String())
	n, _ := strconv.Atoi(p)
	return n
}

// Accepted returns the number of connections accepted so far.
func (s *Sink) Accepted() int { return int(s.accepted.Load()) }

// Received returns the total number of bytes received across connections.
func (s *Sink) Received() int64 { return s.received.Load() }

// Conns returns the connections accepted so far, in accept order. With
// Options.Discard only live connections are returned.
func (s *Sink) Conns() []*Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Conn(nil), s.conns...)
}

// Close stops accepting, closes live connections and waits for readers.
func (s *Sink) Close() error {
	var err error
	s.once.Do(func() {
		close(s.closed)
		err = s.l.Close()
		for _, c := range s.Conns() {
			_ = c.c.Close()
		}
		s.wg.Wait()
	})
	return err
}

func (s *Sink) acceptLoop() {
	defer s.wg.Done()
	for {
		c, err := s.l.Accept()
		if err != nil {
			select {
			case <-s.closed:
			default:
				s.log.Warn("accept failed", zap.Error(err))
			}
			return
		}
		rc := &Conn{ID: int(s.accepted.Inc()) - 1, Remote: c.RemoteAddr(), c: c}
		s.mu.Lock()
		s.conns = append(s.conns, rc)
		s.mu.Unlock()
		s.log.Debug("accepted", zap.Int("id", rc.ID), zap.Stringer("remote", rc.Remote))
		select {
		case <-s.closed:
			// raced with Close after it snapshotted the connections
			_ = c.Close()
		default:
		}

		s.wg.Add(1)
		go s.readLoop(rc)
	}
}

func (s *Sink) readLoop(rc *Conn) {
	defer s.wg.Done()
	defer func() {
		_ = rc.c.Close()
		rc.mu.Lock()
		rc.closed = true
		rc.mu.Unlock()
		if s.opts.Discard {
			s.forget(rc)
		}
		if s.opts.OnClose != nil {
			s.opts.OnClose(rc.ID)
		}
	}()
	buf := make([]byte, 32*1024)
	for {
		n, err := rc.c.Read(buf)
		if n > 0 {
			if !s.opts.Discard {
				rc.mu.Lock()
				rc.buf.Write(buf[:n])
				rc.mu.Unlock()
			}
			s.received.Add(int64(n))
			if s.opts.OnData != nil {
				s.opts.OnData(rc.ID, buf[:n])
			}
		}
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.log.Debug("connection ended", zap.Int("id", rc.ID), zap.Error(err))
			}
			return
		}
	}
}

func (s *Sink) forget(rc *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.conns {
		if c == rc {
			s.conns = append(s.conns[:i], s.conns[i+1:]...)
			return
		}
	}
}
