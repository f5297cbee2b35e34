package server

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/citadel-web/citadel/pkg/listener"
	"github.com/citadel-web/citadel/pkg/protocol"
)

// State is the phase a worker's accept loop is in.
type State int32

const (
	// StateStarting: the worker is creating its scheduling context.
	StateStarting State = iota
	// StateAccepting: the worker is waiting for the next connection.
	StateAccepting
	// StateDispatching: the worker is handing a connection off.
	StateDispatching
	// StateTerminated: the accept loop has ended; the worker is done.
	StateTerminated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateAccepting:
		return "accepting"
	case StateDispatching:
		return "dispatching"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Worker owns one accept loop. It pulls connections from its listener
// stream and dispatches each exchange onto its own scheduling handle;
// accepting the next connection never waits for prior connections to
// finish. Workers are fully independent of one another.
type Worker struct {
	id       int
	cfg      *Config
	listener listener.Listener
	driver   protocol.Driver
	state    atomic.Int32
}

// NewWorker builds a worker. id must be unique within the server; l and d
// are shared across workers and must tolerate that.
func NewWorker(id int, cfg *Config, l listener.Listener, d protocol.Driver) *Worker {
	return &Worker{
		id:       id,
		cfg:      cfg,
		listener: l,
		driver:   d,
	}
}

// ID returns the worker's identity.
func (w *Worker) ID() int {
	return w.id
}

// State returns the current accept-loop state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
}

// Run pins the worker to an OS thread, creates its scheduling handle, and
// drives the accept loop until it terminates. The returned error is the
// terminal failure; there is no restart.
func (w *Worker) Run() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	return w.Serve(newHandle(w.id, w.cfg))
}

// Serve drives the accept loop on a caller-owned scheduling handle. Used
// directly when the runtime is folded into a host application's own
// scheduling context.
func (w *Worker) Serve(h *Handle) error {
	w.setState(StateStarting)
	logger := w.cfg.Logger()
	metrics := w.cfg.Metrics()

	stream, err := w.listener.Incoming(w.id)
	if err != nil {
		w.setState(StateTerminated)
		metrics.WorkerTerminated()
		werr := &WorkerError{Worker: w.id, Op: "obtain accept stream", Err: err}
		logger.Error("worker failed to start", "worker", w.id, "error", err)
		return werr
	}

	factory := NewServiceFactory(w.cfg.NewHandler(), h)
	logger.Info("worker accepting", "worker", w.id, "addr", w.listener.Addr())

	ctx := context.Background()
	for {
		w.setState(StateAccepting)
		conn, remote, err := stream.Next(ctx)
		if err != nil {
			w.setState(StateTerminated)
			metrics.WorkerTerminated()
			werr := &WorkerError{Worker: w.id, Op: "accept", Err: err}
			logger.Error("worker terminated", "worker", w.id, "error", err)
			return werr
		}

		w.setState(StateDispatching)
		metrics.ConnAccepted(w.id)
		svc := factory.Connect(remote)

		h.Spawn(func() {
			start := time.Now()
			metrics.ExchangeStarted()
			defer func() {
				metrics.ExchangeFinished(time.Since(start))
			}()

			// A failed exchange is contained here: the connection's work
			// is discarded and the accept loop never notices.
			if err := w.driver.ServeConn(ctx, conn, remote, svc); err != nil {
				logger.Debug("connection exchange failed",
					"worker", w.id,
					"remote", remote,
					"error", err)
			}
		})
	}
}
