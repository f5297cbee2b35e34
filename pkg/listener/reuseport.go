//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package listener

import (
	"context"
	"net"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// ReusePort gives every worker its own socket bound to the same address
// with SO_REUSEPORT, so the kernel load-balances accepts across workers
// with no user-space coordination.
type ReusePort struct {
	mu        sync.Mutex
	addr      *net.TCPAddr
	listeners []*net.TCPListener
	closed    bool
}

// NewReusePort returns a listener that binds one SO_REUSEPORT socket per
// worker to addr. Nothing is bound until the first Incoming call; if addr
// requests an ephemeral port, the port chosen for the first worker is
// reused for the rest.
func NewReusePort(addr *net.TCPAddr) *ReusePort {
	return &ReusePort{addr: addr}
}

// Incoming binds the worker's socket and returns its accept stream.
func (l *ReusePort) Incoming(worker int) (Stream, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrClosed
	}

	lc := net.ListenConfig{Control: setReusePort}
	ln, err := lc.Listen(context.Background(), "tcp", l.addr.String())
	if err != nil {
		return nil, err
	}
	tln := ln.(*net.TCPListener)

	// First bind resolves an ephemeral port; later workers must share it.
	if l.addr.Port == 0 {
		l.addr = tln.Addr().(*net.TCPAddr)
	}
	l.listeners = append(l.listeners, tln)

	return &acceptStream{ln: tln}, nil
}

// Addr returns the bound address, or the requested address before the
// first worker binds.
func (l *ReusePort) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.listeners) > 0 {
		return l.listeners[0].Addr()
	}
	return l.addr
}

// Close closes every worker's socket. Blocked Next calls return a
// terminal error.
func (l *ReusePort) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	var first error
	for _, ln := range l.listeners {
		if err := ln.Close(); err != nil && first == nil {
			first = err
		}
	}
	l.listeners = nil
	return first
}

// acceptStream accepts from one worker-owned socket.
type acceptStream struct {
	ln *net.TCPListener
}

// Next accepts the next connection from the worker's own socket.
func (st *acceptStream) Next(ctx context.Context) (net.Conn, net.Addr, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	conn, err := st.ln.Accept()
	if err != nil {
		return nil, nil, err
	}
	return conn, conn.RemoteAddr(), nil
}

// setReusePort marks the socket SO_REUSEPORT before bind.
func setReusePort(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// New returns the platform-default listener for addr: per-worker
// SO_REUSEPORT sockets.
func New(addr *net.TCPAddr) (Listener, error) {
	return NewReusePort(addr), nil
}
