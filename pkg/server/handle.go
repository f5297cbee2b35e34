package server

import (
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Handle is a worker's scheduling handle. Work registered through Spawn is
// owned by that worker: the handle tracks it, isolates its panics, and can
// be waited on. A Handle never migrates between workers.
type Handle struct {
	worker   int
	logger   *slog.Logger
	metrics  *Metrics
	wg       sync.WaitGroup
	inflight atomic.Int64
}

// NewHandle creates a scheduling handle for the given worker. Used
// directly when embedding the runtime into a host application; Worker.Run
// creates its own.
func NewHandle(worker int) *Handle {
	return &Handle{
		worker: worker,
		logger: slog.Default().With("component", "server"),
	}
}

// newHandle creates a handle wired to the shared configuration.
func newHandle(worker int, cfg *Config) *Handle {
	return &Handle{
		worker:  worker,
		logger:  cfg.Logger(),
		metrics: cfg.Metrics(),
	}
}

// Worker returns the identity of the owning worker.
func (h *Handle) Worker() int {
	return h.worker
}

// InFlight returns the number of tasks currently running on the handle.
func (h *Handle) InFlight() int64 {
	return h.inflight.Load()
}

// Spawn registers task as new asynchronous work owned by the handle's
// worker. A panic inside task is caught and logged; it discards that
// task's work only.
func (h *Handle) Spawn(task func()) {
	h.wg.Add(1)
	h.inflight.Add(1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				h.metrics.Panic()
				h.logger.Error("task panic",
					"worker", h.worker,
					"panic", r,
					"stack", string(debug.Stack()))
			}
			h.inflight.Add(-1)
			h.wg.Done()
		}()
		task()
	}()
}

// Wait blocks until every task spawned so far has finished. Used by tests
// and during shutdown; the accept loop never waits on prior connections.
func (h *Handle) Wait() {
	h.wg.Wait()
}
