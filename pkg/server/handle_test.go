package server

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestHandleSpawnRunsTask(t *testing.T) {
	h := NewHandle(7)
	if h.Worker() != 7 {
		t.Errorf("Worker() = %d, want 7", h.Worker())
	}

	var ran atomic.Bool
	h.Spawn(func() { ran.Store(true) })
	h.Wait()

	if !ran.Load() {
		t.Error("spawned task did not run")
	}
	if h.InFlight() != 0 {
		t.Errorf("InFlight() = %d after Wait, want 0", h.InFlight())
	}
}

func TestHandleSpawnIsolatesPanics(t *testing.T) {
	h := NewHandle(0)

	var after atomic.Int32
	h.Spawn(func() { panic("task exploded") })
	h.Spawn(func() { after.Add(1) })
	h.Wait()

	if after.Load() != 1 {
		t.Error("a panicking task must not affect later tasks")
	}
}

func TestHandleTracksConcurrentTasks(t *testing.T) {
	h := NewHandle(0)

	release := make(chan struct{})
	const n = 5
	started := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		h.Spawn(func() {
			started <- struct{}{}
			<-release
		})
	}

	for i := 0; i < n; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("tasks did not start")
		}
	}
	if got := h.InFlight(); got != n {
		t.Errorf("InFlight() = %d, want %d", got, n)
	}

	close(release)
	h.Wait()
	if h.InFlight() != 0 {
		t.Errorf("InFlight() = %d after Wait, want 0", h.InFlight())
	}
}
