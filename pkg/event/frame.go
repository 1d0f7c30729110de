package event

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// MaxFrameSize bounds a single length-prefixed frame.
const MaxFrameSize = 1 << 24

// Framing delimits encoded events on the byte stream. The transport itself
// sends opaque bytes; the receiving side needs one of these to split them.
type Framing int

const (
	// FramingNewline terminates each frame with '\n' (JSON lines).
	FramingNewline Framing = iota
	// FramingLength prefixes each frame with its length as u32 little-endian.
	FramingLength
)

var (
	ErrFrameTooLarge   = errors.New("frame exceeds maximum size")
	ErrNewlineInRecord = errors.New("payload contains a newline")
)

func (f Framing) String() string {
	switch f {
	case FramingNewline:
		return "newline"
	case FramingLength:
		return "length"
	default:
		return fmt.Sprintf("framing(%d)", int(f))
	}
}

// ParseFraming maps a configuration string to a Framing.
func ParseFraming(s string) (Framing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "newline", "lines", "ndjson":
		return FramingNewline, nil
	case "length", "length-prefixed", "u32le":
		return FramingLength, nil
	default:
		return 0, fmt.Errorf("unknown framing: %q", s)
	}
}

// Frame returns payload delimited for the stream, in a new slice.
func (f Framing) Frame(payload []byte) ([]byte, error) {
	switch f {
	case FramingNewline:
		if bytes.IndexByte(payload, '\n') >= 0 {
			return nil, ErrNewlineInRecord
		}
		out := make([]byte, 0, len(payload)+1)
		return append(append(out, payload...), '\n'), nil
	case FramingLength:
		if len(payload) > MaxFrameSize {
			return nil, ErrFrameTooLarge
		}
		out := make([]byte, 4, 4+len(payload))
		binary.LittleEndian.PutUint32(out, uint32(len(payload)))
		return append(out, payload...), nil
	default:
		return nil, fmt.Errorf("unknown framing: %d", int(f))
	}
}

// Splitter reassembles frames from arbitrarily chunked stream reads.
// It is not safe for concurrent use; keep one per connection.
type Splitter struct {
	f   Framing
	buf []byte
}

func NewSplitter(f Framing) *Splitter { return &Splitter{f: f} }

// Feed appends chunk and returns every frame now complete, without delimiters.
func (s *Splitter) Feed(chunk []byte) ([][]byte, error) {
	s.buf = append(s.buf, chunk...)
	var frames [][]byte
	for {
		frame, rest, ok, err := s.next(s.buf)
		if err != nil {
			return frames, err
		}
		if !ok {
			break
		}
		frames = append(frames, frame)
		s.buf = rest
	}
	// Compact so a long-lived connection does not pin consumed bytes.
	s.buf = append([]byte(nil), s.buf...)
	return frames, nil
}

// Buffered returns the number of bytes held for an incomplete frame.
func (s *Splitter) Buffered() int { return len(s.buf) }

func (s *Splitter) next(b []byte) (frame, rest []byte, ok bool, err error) {
	switch s.f {
	case FramingNewline:
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			return nil, b, false, nil
		}
		return append([]byte(nil), b[:i]...), b[i+1:], true, nil
	case FramingLength:
		if len(b) < 4 {
			return nil, b, false, nil
		}
		n := int(binary.LittleEndian.Uint32(b[:4]))
		if n > MaxFrameSize {
			return nil, b, false, ErrFrameTooLarge
		}
		if len(b) < 4+n {
			return nil, b, false, nil
		}
		return append([]byte(nil), b[4:4+n]...), b[4+n:], true, nil
	default:
		return nil, b, false, fmt.Errorf("unknown framing: %d", int(s.f))
	}
}
