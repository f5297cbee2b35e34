package listener

import (
	"context"
	"net"
	"sync"
)

// accepted is one connection pulled off the shared socket.
type accepted struct {
	conn   net.Conn
	remote net.Addr
}

// Shared serves every worker from a single bound socket. One pump
// goroutine accepts and hands connections to whichever worker asks next.
// This is the fallback for platforms without SO_REUSEPORT and the wrapper
// used to fold an existing net.Listener into the runtime.
type Shared struct {
	ln net.Listener

	pumpOnce sync.Once
	conns    chan accepted
	done     chan struct{}

	mu      sync.Mutex
	termErr error
}

// NewShared binds addr and returns a Shared listener.
func NewShared(addr *net.TCPAddr) (*Shared, error) {
	ln, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewSharedFrom(ln), nil
}

// NewSharedFrom wraps an already-bound net.Listener. The Shared listener
// takes ownership: Close closes ln.
func NewSharedFrom(ln net.Listener) *Shared {
	return &Shared{
		ln:    ln,
		conns: make(chan accepted),
		done:  make(chan struct{}),
	}
}

// Incoming returns a stream fed from the shared socket. The accept pump
// starts on the first call.
func (s *Shared) Incoming(worker int) (Stream, error) {
	s.pumpOnce.Do(func() {
		go s.pump()
	})
	return &sharedStream{s: s}, nil
}

// Addr returns the bound address.
func (s *Shared) Addr() net.Addr {
	return s.ln.Addr()
}

// Close closes the bound socket. The pump exits and every worker's stream
// reports a terminal error.
func (s *Shared) Close() error {
	return s.ln.Close()
}

// pump moves connections from the socket to the worker streams until the
// socket fails terminally.
func (s *Shared) pump() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			s.mu.Lock()
			s.termErr = err
			s.mu.Unlock()
			close(s.done)
			return
		}
		select {
		case s.conns <- accepted{conn: conn, remote: conn.RemoteAddr()}:
		case <-s.done:
			conn.Close()
			return
		}
	}
}

// terminalErr reports why the pump stopped.
func (s *Shared) terminalErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.termErr != nil {
		return s.termErr
	}
	return ErrClosed
}

// sharedStream is one worker's view of the shared socket.
type sharedStream struct {
	s *Shared
}

// Next pulls the next accepted connection.
func (st *sharedStream) Next(ctx context.Context) (net.Conn, net.Addr, error) {
	select {
	case a := <-st.s.conns:
		return a.conn, a.remote, nil
	case <-st.s.done:
		return nil, nil, st.s.terminalErr()
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}
