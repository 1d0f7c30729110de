// Package transport defines the wire-transport primitives used by logship
// to ship already-encoded event buffers to a remote collector.
//
// Key concepts:
// - Endpoint: the immutable (host, port) pair a Sender delivers to
// - Sender: a Send/Close pair over a single, lazily opened connection
// - Error: a transport failure tagged with its Kind (connect, write, close)
//
// Implementations live in subpackages: tcp (the production sender) and mem
// (an in-process recorder for tests and dry runs).
package transport
