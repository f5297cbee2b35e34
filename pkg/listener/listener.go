// Package listener abstracts the OS accept mechanism behind a per-worker
// stream of inbound connections.
//
// Each worker calls Incoming once and pulls accepted connections from its
// own Stream. Streams are lazy: a connection is accepted only when the
// worker asks for the next one. How workers share the bound address is an
// implementation concern; on platforms with SO_REUSEPORT every worker owns
// its own socket and the kernel balances accepts, elsewhere a single bound
// socket is pumped into per-worker streams.
package listener

import (
	"context"
	"errors"
	"net"
)

// ErrClosed is the terminal error a Stream reports once its listener has
// been closed.
var ErrClosed = errors.New("listener: closed")

// Listener produces an independent accept stream per worker.
type Listener interface {
	// Incoming returns the accept stream for the given worker. It is
	// called once per worker; an error is terminal for that worker.
	Incoming(worker int) (Stream, error)

	// Addr returns the bound address, or nil if nothing is bound yet.
	Addr() net.Addr

	// Close releases the underlying sockets. Every blocked Next call
	// returns a terminal error.
	Close() error
}

// Stream is a lazy sequence of accepted connections. It is owned by a
// single worker and is not safe for concurrent use.
type Stream interface {
	// Next blocks until a connection is available and returns it together
	// with the peer address. A returned error is terminal: the stream
	// produces nothing afterwards.
	Next(ctx context.Context) (net.Conn, net.Addr, error)
}
