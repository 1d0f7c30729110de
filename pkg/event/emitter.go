package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"logship/pkg/codec"
	"logship/pkg/transport"
)

// EmitterOptions tunes an Emitter. The zero value is usable.
type EmitterOptions struct {
	Logger *zap.Logger
	Now    func() time.Time
	NewID  func() string
}

// Emitter encodes and frames events and sends each one with a single
// Sender.Send call. It does not retry; a failed Emit leaves the event unsent.
type Emitter struct {
	s     transport.Sender
	c     codec.Codec
	f     Framing
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

// NewEmitter validates that c and f can be combined: newline framing is only
// safe for JSON, whose encoder never emits a raw newline.
func NewEmitter(s transport.Sender, c codec.Codec, f Framing, opts EmitterOptions) (*Emitter, error) {
	if f == FramingNewline && c.Name() != "json" {
		return nil, fmt.Errorf("newline framing requires the json codec, got %s", c.Name())
	}
	e := &Emitter{s: s, c: c, f: f, log: opts.Logger, now: opts.Now, newID: opts.NewID}
	if e.log == nil {
		e.log = zap.L()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	e.log = e.log.Named("emitter")
	return e, nil
}

// Emit ships record under tag, stamping a fresh ID and the current time.
func (e *Emitter) Emit(tag string, record map[string]any) error {
	return e.EmitEvent(Event{Tag: tag, Record: record})
}

// EmitEvent ships ev, filling in ID and TimeMS when they are zero.
func (e *Emitter) EmitEvent(ev Event) error {
	if ev.ID == "" {
		ev.ID = e.newID()
	}
	if ev.TimeMS == 0 {
		ev.TimeMS = e.now().UnixMilli()
	}
	payload, err := Encode(e.c, ev)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.ID, err)
	}
	frame, err := e.f.Frame(payload)
	if err != nil {
		return fmt.Errorf("frame event %s: %w", ev.ID, err)
	}
	if err := e.s.Send(frame); err != nil {
		return fmt.Errorf("send event %s: %w", ev.ID, err)
	}
	e.log.Debug("emitted", zap.String("id", ev.ID), zap.String("tag", ev.Tag), zap.Int("bytes", len(frame)))
	return nil
}

// Close closes the underlying Sender.
func (e *Emitter) Close() error { return e.s.Close() }
