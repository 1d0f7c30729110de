// Package codec holds the payload encodings logship can put on the wire.
package codec

import (
	"fmt"
	"strings"
)

// Codec marshals event payloads. Implementations are deterministic so the
// same event always produces the same bytes.
type Codec interface {
	Name() string
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Registry maps codec names, aliases and content types to codecs.
type Registry struct {
	byType map[string]Codec
	byName map[string]Codec
}

// NewRegistry returns a registry with JSON, CBOR and Protobuf registered.
func NewRegistry() *Registry {
	r := &Registry{byType: make(map[string]Codec), byName: make(map[string]Codec)}
	r.Register(JSON())
	r.Register(CBOR())
	r.Register(Proto())
	return r
}

// Register adds c under its name and content type.
func (r *Registry) Register(c Codec) {
	r.byType[c.ContentType()] = c
	r.byName[c.Name()] = c
}

// Lookup resolves a configuration name ("json", "cbor", "proto"/"protobuf")
// or a content type.
func (r *Registry) Lookup(name string) (Codec, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "protobuf" {
		n = "proto"
	}
	if c, ok := r.byName[n]; ok {
		return c, nil
	}
	if c, ok := r.byType[n]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unknown codec: %q", name)
}

// Lookup resolves name against the built-in codecs.
func Lookup(name string) (Codec, error) { return NewRegistry().Lookup(name) }
