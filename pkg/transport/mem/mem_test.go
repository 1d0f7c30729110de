package mem

import (
	"errors"
	"testing"

	"logship/pkg/transport"
)

func TestRecordsAndCopies(t *testing.T) {
	s := New("", 0)
	buf := []byte("abc")
	if err := s.Send(buf); err != nil {
		t.Fatalf("send: %v", err)
	}
	buf[0] = 'X'
	got := s.Buffers()
	if len(got) != 1 || string(got[0]) != "abc" {
		t.Fatalf("recorded %q", got)
	}
	if s.Endpoint() != transport.NewEndpoint("", 0) {
		t.Fatalf("unexpected endpoint %s", s.Endpoint())
	}
}

func TestLifecycleMirrorsTCP(t *testing.T) {
	s := New("", 0)
	if s.Connected() || s.Opens() != 0 {
		t.Fatalf("fresh sender must be disconnected")
	}
	_ = s.Send([]byte("a"))
	_ = s.Send([]byte("b"))
	if s.Opens() != 1 {
		t.Fatalf("opens = %d, want 1", s.Opens())
	}

	s.FailNext(errors.New("reset"))
	err := s.Send([]byte("c"))
	if !transport.IsKind(err, transport.WriteFailure) {
		t.Fatalf("expected WriteFailure, got %v", err)
	}
	if s.Connected() {
		t.Fatalf("failure must drop the connection")
	}
	if err := s.Send([]byte("d")); err != nil {
		t.Fatalf("send: %v", err)
	}
	if s.Opens() != 2 {
		t.Fatalf("opens = %d, want 2", s.Opens())
	}
	if n := len(s.Buffers()); n != 3 {
		t.Fatalf("buffers = %d, want 3 (failed send not recorded)", n)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close again: %v", err)
	}
}
