package transport

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a transport failure.
type ErrorKind int

const (
	// ConnectFailure: the connection could not be established.
	ConnectFailure ErrorKind = iota + 1
	// WriteFailure: an established connection failed to take the whole buffer.
	WriteFailure
	// CloseFailure: releasing the connection failed.
	CloseFailure
)

func (k ErrorKind) String() string {
	switch k {
	case ConnectFailure:
		return "connect failure"
	case WriteFailure:
		return "write failure"
	case CloseFailure:
		return "close failure"
	default:
		return fmt.Sprintf("unknown transport error: %d", int(k))
	}
}

// Error is returned by Senders for every connect, write and close failure.
type Error struct {
	Kind     ErrorKind
	Endpoint Endpoint
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Endpoint, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Endpoint, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err as a transport failure of the given kind.
func NewError(kind ErrorKind, ep Endpoint, err error) *Error {
	return &Error{Kind: kind, Endpoint: ep, Err: err}
}

// IsKind reports whether err (or anything it wraps) is a transport Error of kind k.
func IsKind(err error, k ErrorKind) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == k
}
