package transport

import (
	"net"
	"strconv"
)

const (
	// DefaultHost is used when a Sender is constructed without a host.
	DefaultHost = "127.0.0.1"
	// DefaultPort is used when a Sender is constructed without a port.
	DefaultPort = 24224
)

// Endpoint is the immutable (host, port) pair a Sender transmits to.
type Endpoint struct {
	Host string
	Port int
}

// NewEndpoint applies DefaultHost for an empty host and DefaultPort for a
// zero port.
func NewEndpoint(host string, port int) Endpoint {
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}
	return Endpoint{Host: host, Port: port}
}

// Address returns the dialable "host:port" form (IPv6 hosts are bracketed).
func (e Endpoint) Address() string { return net.JoinHostPort(e.Host, strconv.Itoa(e.Port)) }

func (e Endpoint) String() string { return e.Address() }
