// Package citadel is a connection-accepting server runtime: a pool of
// independent worker accept loops, one pinned per OS thread, each
// dispatching accepted connections to per-connection services and
// translating handler failures into well-formed protocol responses.
//
// The common entry point resolves an address and blocks forever:
//
//	citadel.Start(":8080", handler.Static(myHandler))
//
// Routing, middleware, and body codecs are deliberately outside this
// runtime; anything that implements handler.NewHandler can be served,
// including a stdlib or Chi router via handler.WrapHTTP.
package citadel

import (
	"fmt"
	"log/slog"
	"net"
	"runtime"

	"github.com/citadel-web/citadel/pkg/handler"
	"github.com/citadel-web/citadel/pkg/listener"
	"github.com/citadel-web/citadel/pkg/protocol"
	"github.com/citadel-web/citadel/pkg/server"
)

// Start runs a server on addr with one worker per logical CPU. It blocks
// until the calling goroutine's worker terminates, which under normal
// operation is never.
//
// Address resolution failure is fatal: Start panics rather than retrying
// or picking a fallback address. That is an operational choice, not an
// accident; a process that cannot bind where it was told to has nothing
// useful left to do.
func Start(addr string, nh handler.NewHandler) {
	StartWithNumWorkers(addr, runtime.NumCPU(), nh)
}

// StartWithNumWorkers is Start with an explicit worker count.
func StartWithNumWorkers(addr string, workers int, nh handler.NewHandler) {
	resolved := resolveAddr(addr)

	ln, err := listener.New(resolved)
	if err != nil {
		panic(fmt.Sprintf("citadel: unable to create listener for %s: %v", resolved, err))
	}

	cfg, err := server.NewConfig(resolved, workers, nh)
	if err != nil {
		panic(fmt.Sprintf("citadel: invalid configuration: %v", err))
	}

	driver := protocol.NewHTTPDriver()

	for i := 1; i < workers; i++ {
		go runAndServe(i, cfg, ln, driver)
	}
	runAndServe(0, cfg, ln, driver)
}

// runAndServe drives one worker to termination. A worker's terminal
// failure is logged and stays with that worker; its siblings keep
// accepting.
func runAndServe(id int, cfg *server.Config, ln listener.Listener, d protocol.Driver) {
	w := server.NewWorker(id, cfg, ln, d)
	if err := w.Run(); err != nil {
		cfg.Logger().Error("worker exited", "worker", id, "error", err)
	}
}

// Serve drives a single worker's accept loop on a caller-owned scheduling
// handle, for folding the runtime into an existing host application. It
// does not block; the accept loop's terminal error is delivered on the
// returned channel.
func Serve(l listener.Listener, d protocol.Driver, nh handler.NewHandler, h *server.Handle) (<-chan error, error) {
	cfg, err := server.NewConfig(tcpAddrOf(l), 1, nh)
	if err != nil {
		return nil, err
	}

	w := server.NewWorker(h.Worker(), cfg, l, d)
	done := make(chan error, 1)
	go func() {
		done <- w.Serve(h)
	}()
	return done, nil
}

// tcpAddrOf extracts a TCP address from a listener for the shared config.
// Listeners bound by external code may expose a different address type;
// the config only needs a non-nil placeholder then.
func tcpAddrOf(l listener.Listener) *net.TCPAddr {
	if a, ok := l.Addr().(*net.TCPAddr); ok {
		return a
	}
	return &net.TCPAddr{}
}

// resolveAddr resolves the bind target or panics. Zero results and
// malformed targets are both fatal, with no retry.
func resolveAddr(addr string) *net.TCPAddr {
	resolved, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		panic(fmt.Sprintf("citadel: unable to resolve listener address %q: %v", addr, err))
	}
	slog.Debug("resolved listener address", "addr", resolved)
	return resolved
}
