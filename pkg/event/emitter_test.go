package event

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"logship/pkg/codec"
	"logship/pkg/sink"
	"logship/pkg/transport"
	"logship/pkg/transport/mem"
	"logship/pkg/transport/tcp"
)

func fixedOptions() EmitterOptions {
	return EmitterOptions{
		Now:   func() time.Time { return time.UnixMilli(1700000000000) },
		NewID: func() string { return "id-1" },
	}
}

func TestEmitSendsOneFramePerEvent(t *testing.T) {
	s := mem.New("", 0)
	e, err := NewEmitter(s, codec.JSON(), FramingNewline, fixedOptions())
	if err != nil {
		t.Fatalf("emitter: %v", err)
	}

	if err := e.Emit("app", map[string]any{"message": "hello"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := e.Emit("app", map[string]any{"message": "world"}); err != nil {
		t.Fatalf("emit: %v", err)
	}

	bufs := s.Buffers()
	if len(bufs) != 2 {
		t.Fatalf("sent %d buffers, want 2", len(bufs))
	}
	want := `{"id":"id-1","tag":"app","time_ms":1700000000000,"record":{"message":"hello"}}` + "\n"
	if string(bufs[0]) != want {
		t.Fatalf("frame = %q\nwant    %q", bufs[0], want)
	}
	if s.Opens() != 1 {
		t.Fatalf("opens = %d, want 1", s.Opens())
	}
}

func TestEmitKeepsExplicitIDAndTime(t *testing.T) {
	s := mem.New("", 0)
	e, err := NewEmitter(s, codec.CBOR(), FramingLength, fixedOptions())
	if err != nil {
		t.Fatalf("emitter: %v", err)
	}
	in := Event{ID: "mine", Tag: "t", TimeMS: 42, Record: map[string]any{"k": "v"}}
	if err := e.EmitEvent(in); err != nil {
		t.Fatalf("emit: %v", err)
	}

	frames, err := NewSplitter(FramingLength).Feed(s.Buffers()[0])
	if err != nil || len(frames) != 1 {
		t.Fatalf("split: %v %d", err, len(frames))
	}
	got, err := Decode(codec.CBOR(), frames[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitSurfacesSendFailure(t *testing.T) {
	s := mem.New("", 0)
	e, err := NewEmitter(s, codec.JSON(), FramingNewline, fixedOptions())
	if err != nil {
		t.Fatalf("emitter: %v", err)
	}
	s.FailNext(errors.New("connection reset"))
	err = e.Emit("app", map[string]any{"n": "1"})
	if !transport.IsKind(err, transport.WriteFailure) {
		t.Fatalf("expected WriteFailure, got %v", err)
	}
	if len(s.Buffers()) != 0 {
		t.Fatalf("failed emit must not be recorded")
	}
	if err := e.Emit("app", map[string]any{"n": "2"}); err != nil {
		t.Fatalf("emit after failure: %v", err)
	}
}

func TestNewlineFramingNeedsJSON(t *testing.T) {
	if _, err := NewEmitter(mem.New("", 0), codec.CBOR(), FramingNewline, EmitterOptions{}); err == nil {
		t.Fatalf("expected error for cbor with newline framing")
	}
}

func TestEmitOverTCP(t *testing.T) {
	sk, err := sink.Listen("127.0.0.1:0", sink.Options{})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer sk.Close()

	e, err := NewEmitter(tcp.New(sk.Host(), sk.Port()), codec.Proto(), FramingLength, EmitterOptions{})
	if err != nil {
		t.Fatalf("emitter: %v", err)
	}
	for _, m := range []string{"one", "two", "three"} {
		if err := e.Emit("tcp.test", map[string]any{"message": m}); err != nil {
			t.Fatalf("emit %s: %v", m, err)
		}
	}
	if err := e.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for sk.Accepted() != 1 || !sk.Conns()[0].Closed() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for sink")
		}
		time.Sleep(5 * time.Millisecond)
	}
	frames, err := NewSplitter(FramingLength).Feed(sk.Conns()[0].Bytes())
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	var got []string
	for _, f := range frames {
		ev, err := Decode(codec.Proto(), f)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ev.Tag != "tcp.test" || ev.ID == "" || ev.TimeMS == 0 {
			t.Fatalf("incomplete event %+v", ev)
		}
		got = append(got, ev.Record["message"].(string))
	}
	if diff := cmp.Diff([]string{"one", "two", "three"}, got); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}
