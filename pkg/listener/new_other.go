//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package listener

import "net"

// New returns the platform-default listener for addr. Without
// SO_REUSEPORT a single bound socket is shared across workers via an
// accept pump.
func New(addr *net.TCPAddr) (Listener, error) {
	return NewShared(addr)
}
