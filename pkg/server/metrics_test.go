package server

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))

	m.ConnAccepted(0)
	m.ConnAccepted(0)
	m.ConnAccepted(1)
	m.ExchangeStarted()
	m.ExchangeStarted()
	m.ExchangeFinished(10 * time.Millisecond)
	m.HandlerError(404)
	m.HandlerError(404)
	m.HandlerError(500)
	m.Panic()
	m.WorkerTerminated()

	if got := testutil.ToFloat64(m.acceptedTotal.WithLabelValues("0")); got != 2 {
		t.Errorf("accepted{worker=0} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.acceptedTotal.WithLabelValues("1")); got != 1 {
		t.Errorf("accepted{worker=1} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.activeConnections); got != 1 {
		t.Errorf("active = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.handlerErrorsTotal.WithLabelValues("404")); got != 2 {
		t.Errorf("handler_errors{404} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.panicsTotal); got != 1 {
		t.Errorf("panics = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.workerTerminations); got != 1 {
		t.Errorf("terminations = %v, want 1", got)
	}
}

func TestNilMetricsIsNoOp(t *testing.T) {
	var m *Metrics

	// Must not panic.
	m.ConnAccepted(0)
	m.ExchangeStarted()
	m.ExchangeFinished(time.Millisecond)
	m.HandlerError(500)
	m.Panic()
	m.WorkerTerminated()
}

func TestMetricsCustomBuckets(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(
		WithRegistry(reg),
		WithSubsystem("runtime"),
		WithBuckets([]float64{0.001, 0.01, 0.1}),
		WithConstLabels(prometheus.Labels{"instance": "test"}),
	)

	m.ExchangeStarted()
	m.ExchangeFinished(5 * time.Millisecond)

	count, err := testutil.GatherAndCount(reg)
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count == 0 {
		t.Error("no metrics registered")
	}
}
