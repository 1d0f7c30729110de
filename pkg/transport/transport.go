package transport

import (
	"fmt"
	"strings"
)

// Kind identifies the sender implementation selected in configuration.
type Kind int

const (
	KindUnknown Kind = iota
	KindTCP
	KindMem
)

func (k Kind) String() string {
	switch k {
	case KindTCP:
		return "tcp"
	case KindMem:
		return "mem"
	default:
		return "unknown"
	}
}

// ParseKind maps a configuration string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tcp", "":
		return KindTCP, nil
	case "mem", "inproc":
		return KindMem, nil
	default:
		return KindUnknown, fmt.Errorf("unknown transport kind: %q", s)
	}
}

// Sender delivers opaque, fully formed buffers to a fixed endpoint.
// Implementations must be safe for concurrent use; every Send is all-or-nothing
// from the caller's point of view and is never retried internally.
type Sender interface {
	// Send transmits data verbatim. On failure the caller owns the retry.
	Send(data []byte) error
	// Close releases any held connection. Safe to call repeatedly.
	Close() error
}
