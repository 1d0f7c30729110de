// Package event turns tagged records into framed, encoded buffers and hands
// them to a transport.Sender.
package event

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"logship/pkg/codec"
)

// Event is one shipped record.
type Event struct {
	ID     string         `json:"id" cbor:"id"`
	Tag    string         `json:"tag" cbor:"tag"`
	TimeMS int64          `json:"time_ms" cbor:"time_ms"`
	Record map[string]any `json:"record" cbor:"record"`
}

// Encode marshals ev with c. Protobuf codecs carry the event as a
// google.protobuf.Struct.
func Encode(c codec.Codec, ev Event) ([]byte, error) {
	if c.Name() != "proto" {
		return c.Marshal(ev)
	}
	st, err := toStruct(ev)
	if err != nil {
		return nil, err
	}
	return c.Marshal(st)
}

// Decode is the inverse of Encode.
func Decode(c codec.Codec, data []byte) (Event, error) {
	var ev Event
	if c.Name() != "proto" {
		err := c.Unmarshal(data, &ev)
		return ev, err
	}
	var st structpb.Struct
	if err := c.Unmarshal(data, &st); err != nil {
		return ev, err
	}
	return fromStruct(&st)
}

func toStruct(ev Event) (*structpb.Struct, error) {
	rec := ev.Record
	if rec == nil {
		rec = map[string]any{}
	}
	st, err := structpb.NewStruct(map[string]any{
		"id":      ev.ID,
		"tag":     ev.Tag,
		"time_ms": ev.TimeMS,
		"record":  rec,
	})
	if err != nil {
		return nil, fmt.Errorf("event %s: record not representable as protobuf Struct: %w", ev.ID, err)
	}
	return st, nil
}

func fromStruct(st *structpb.Struct) (Event, error) {
	m := st.AsMap()
	ev := Event{}
	ev.ID, _ = m["id"].(string)
	ev.Tag, _ = m["tag"].(string)
	if ms, ok := m["time_ms"].(float64); ok {
		ev.TimeMS = int64(ms)
	}
	if m["record"] != nil {
		rec, ok := m["record"].(map[string]any)
		if !ok {
			return ev, fmt.Errorf("event %s: record is %T, want object", ev.ID, m["record"])
		}
		ev.Record = rec
	}
	return ev, nil
}
