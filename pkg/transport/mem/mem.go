// Package mem provides an in-process transport.Sender that records buffers
// instead of writing them to a socket. It follows the same connection
// lifecycle as the tcp sender so callers can be tested without a network.
package mem

import (
	"sync"

	"go.uber.org/atomic"

	"logship/pkg/transport"
)

// Sender records every successfully sent buffer.
type Sender struct {
	ep transport.Endpoint

	mu        sync.Mutex
	connected bool
	failNext  error
	buffers   [][]byte

	opens atomic.Int64
}

var _ transport.Sender = (*Sender)(nil)

// New returns a disconnected recorder for the given endpoint (defaults apply).
func New(host string, port int) *Sender {
	return &Sender{ep: transport.NewEndpoint(host, port)}
}

func (s *Sender) Endpoint() transport.Endpoint { return s.ep }

// FailNext makes the next Send fail with a WriteFailure wrapping err and drop
// the simulated connection.
func (s *Sender) FailNext(err error) {
	s.mu.Lock()
	s.failNext = err
	s.mu.Unlock()
}

func (s *Sender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		s.connected = true
		s.opens.Inc()
	}
	if err := s.failNext; err != nil {
		s.failNext = nil
		s.connected = false
		return transport.NewError(transport.WriteFailure, s.ep, err)
	}
	s.buffers = append(s.buffers, append([]byte(nil), data...))
	return nil
}

func (s *Sender) Close() error {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	return nil
}

// Connected reports whether a simulated connection is held.
func (s *Sender) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Opens counts Disconnected to Connected transitions.
func (s *Sender) Opens() int { return int(s.opens.Load()) }

// Buffers returns copies of the recorded buffers in send order.
func (s *Sender) Buffers() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.buffers))
	for i, b := range s.buffers {
		out[i] = append([]byte(nil), b...)
	}
	return out
}
