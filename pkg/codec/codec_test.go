package codec

import (
	"testing"

	"google.golang.org/protobuf/types/known/structpb"
)

func TestJSONCodec(t *testing.T) {
	c := JSON()
	b, err := c.Marshal(map[string]any{"a": 1, "b": "x"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := c.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["a"].(float64) != 1 || out["b"].(string) != "x" {
		t.Fatalf("roundtrip mismatch: %#v", out)
	}
}

func TestCBORIsCanonical(t *testing.T) {
	c := CBOR()
	a, err := c.Marshal(map[string]any{"z": 1, "a": 2, "m": 3})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := c.Marshal(map[string]any{"m": 3, "z": 1, "a": 2})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("canonical encoding differs for equal maps")
	}
	var out any
	if err := c.Unmarshal(a, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := out.(map[string]any); !ok {
		t.Fatalf("expected map[string]any, got %T", out)
	}
}

func TestProtoCodec(t *testing.T) {
	c := Proto()
	s, err := structpb.NewStruct(map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("struct: %v", err)
	}
	b, err := c.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out structpb.Struct
	if err := c.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Fields["k"].GetStringValue() != "v" {
		t.Fatalf("roundtrip mismatch")
	}
	if _, err := c.Marshal(map[string]any{}); err == nil {
		t.Fatalf("expected error for non proto.Message")
	}
}

func TestLookup(t *testing.T) {
	for in, want := range map[string]string{
		"json":                   "json",
		" CBOR ":                 "cbor",
		"protobuf":               "proto",
		"application/x-protobuf": "proto",
		"application/json":       "json",
	} {
		c, err := Lookup(in)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", in, err)
		}
		if c.Name() != want {
			t.Fatalf("Lookup(%q) = %s, want %s", in, c.Name(), want)
		}
	}
	if _, err := Lookup("msgpack"); err == nil {
		t.Fatalf("expected error for unknown codec")
	}
}
