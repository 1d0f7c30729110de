package event

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"logship/pkg/codec"
)

func TestEncodeDecodeAllCodecs(t *testing.T) {
	ev := Event{
		ID:     "0b6c3f1e-5d7a-4c1b-9f0e-2a4d6e8f0a1b",
		Tag:    "app.access",
		TimeMS: 1760659200123,
		Record: map[string]any{"message": "GET /", "host": "web-1", "labels": map[string]any{"env": "prod"}},
	}
	for _, name := range []string{"json", "cbor", "proto"} {
		c, err := codec.Lookup(name)
		if err != nil {
			t.Fatalf("lookup %s: %v", name, err)
		}
		b, err := Encode(c, ev)
		if err != nil {
			t.Fatalf("%s: encode: %v", name, err)
		}
		got, err := Decode(c, b)
		if err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		if diff := cmp.Diff(ev, got); diff != "" {
			t.Fatalf("%s: roundtrip mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestProtoEncodeRejectsUnrepresentable(t *testing.T) {
	ev := Event{ID: "x", Record: map[string]any{"ch": make(chan int)}}
	if _, err := Encode(codec.Proto(), ev); err == nil {
		t.Fatalf("expected error for channel value")
	}
}
