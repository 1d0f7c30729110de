package codec

import (
	"reflect"

	cbor "github.com/fxamacker/cbor/v2"
)

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var defaultCBOR = mustCBOR()

var mapStringAny = reflect.TypeOf(map[string]any(nil))

func mustCBOR() cborCodec {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	// Decode untyped maps as map[string]any so decoded events look like
	// their JSON counterparts.
	dm, err := cbor.DecOptions{DefaultMapType: mapStringAny}.DecMode()
	if err != nil {
		panic(err)
	}
	return cborCodec{enc: em, dec: dm}
}

// CBOR returns a canonical CBOR codec (RFC 8949 core deterministic encoding).
func CBOR() Codec { return defaultCBOR }

func (c cborCodec) Name() string { return "cbor" }
func (c cborCodec) ContentType() string { return "application/cbor" }
func (c cborCodec) Marshal(v any) ([]byte, error) { return c.enc.Marshal(v) }
func (c cborCodec) Unmarshal(data []byte, v any) error { return c.dec.Unmarshal(data, v) }
