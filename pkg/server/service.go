package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/citadel-web/citadel/pkg/handler"
)

// tracerName identifies the runtime's spans.
const tracerName = "github.com/citadel-web/citadel/pkg/server"

// ServiceFactory creates one ConnectionService per accepted connection,
// binding the shared handler factory to the accepting worker's handle.
type ServiceFactory struct {
	newHandler handler.NewHandler
	handle     *Handle
	logger     *slog.Logger
	metrics    *Metrics
	tracer     trace.Tracer
}

// NewServiceFactory builds a factory for one worker. nh is the shared,
// read-only handler factory; h is the worker's scheduling handle.
func NewServiceFactory(nh handler.NewHandler, h *Handle) *ServiceFactory {
	return &ServiceFactory{
		newHandler: nh,
		handle:     h,
		logger:     h.logger,
		metrics:    h.metrics,
		tracer:     otel.Tracer(tracerName),
	}
}

// Connect returns the service for a connection from remote. It never
// fails: a handler construction failure is deferred to per-request
// handling, where the error model renders it.
func (f *ServiceFactory) Connect(remote net.Addr) *ConnectionService {
	return &ConnectionService{
		factory: f,
		remote:  remote,
	}
}

// ConnectionService dispatches the requests of a single accepted
// connection. It exists only within its owning worker and is not reused
// across connections.
type ConnectionService struct {
	factory *ServiceFactory
	remote  net.Addr
}

// RemoteAddr returns the peer address the service is bound to.
func (s *ConnectionService) RemoteAddr() net.Addr {
	return s.remote
}

// Serve dispatches one request and always returns a well-formed response.
// Handler errors are routed through the error model; panics are recovered
// and rendered as 500s. Nothing escapes to the protocol driver as a fault.
func (s *ConnectionService) Serve(req *handler.Request) (resp *handler.Response) {
	ctx := context.Background()
	if req.HTTP != nil {
		ctx = req.HTTP.Context()
	}

	_, span := s.factory.tracer.Start(ctx, "citadel.dispatch",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("citadel.request_id", req.ID),
			attribute.String("citadel.remote", s.remote.String()),
		))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			s.factory.logger.Error("handler panic",
				"request_id", req.ID,
				"remote", s.remote,
				"panic", r,
				"stack", string(debug.Stack()))
			resp = s.fail(span, req, handler.LiftError(fmt.Errorf("handler panic: %v", r)))
		}
	}()

	h, err := s.factory.newHandler.NewHandler()
	if err != nil {
		return s.fail(span, req, liftIfNeeded(err))
	}

	r, err := h.Handle(req)
	if err != nil {
		return s.fail(span, req, liftIfNeeded(err))
	}
	if r == nil {
		return s.fail(span, req, handler.LiftError(ErrNilResponse))
	}

	span.SetAttributes(attribute.Int("http.response.status_code", r.StatusCode))
	return r
}

// fail renders a handler error into a response and records it.
func (s *ConnectionService) fail(span trace.Span, req *handler.Request, herr *handler.HandlerError) *handler.Response {
	span.RecordError(herr.Unwrap())
	span.SetStatus(codes.Error, herr.Error())
	span.SetAttributes(attribute.Int("http.response.status_code", herr.StatusCode()))

	s.factory.metrics.HandlerError(herr.StatusCode())
	return herr.Response(req)
}

// liftIfNeeded lifts err into a HandlerError unless it already is one
// somewhere in its chain.
func liftIfNeeded(err error) *handler.HandlerError {
	var herr *handler.HandlerError
	if errors.As(err, &herr) {
		return herr
	}
	return handler.LiftError(err)
}
