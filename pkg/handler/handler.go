package handler

import (
	"bytes"
	"net"
	"net/http"
)

// Request is one inbound request as seen by a Handler.
type Request struct {
	// ID is the correlation identifier assigned by the protocol driver.
	// It ties a client-visible response to the operator-facing log records
	// for the same exchange.
	ID string

	// RemoteAddr is the peer address of the connection the request
	// arrived on.
	RemoteAddr net.Addr

	// HTTP is the parsed wire-level request.
	HTTP *http.Request
}

// Handler processes a single request.
type Handler interface {
	// Handle returns the response for req. Returning a *HandlerError sets
	// the response status; any other error is rendered as a 500.
	Handle(req *Request) (*Response, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(*Request) (*Response, error)

// Handle calls f(req).
func (f HandlerFunc) Handle(req *Request) (*Response, error) {
	return f(req)
}

// NewHandler produces one Handler per request. It is shared read-only by
// all workers and must be safe for concurrent use.
type NewHandler interface {
	NewHandler() (Handler, error)
}

// NewHandlerFunc adapts a plain factory function to the NewHandler
// interface.
type NewHandlerFunc func() (Handler, error)

// NewHandler calls f().
func (f NewHandlerFunc) NewHandler() (Handler, error) {
	return f()
}

// Static returns a NewHandler that hands out the same Handler for every
// request. h must be safe for concurrent use.
func Static(h Handler) NewHandler {
	return NewHandlerFunc(func() (Handler, error) {
		return h, nil
	})
}

// WrapHTTP adapts a stdlib http.Handler to the Handler interface. This is
// the integration point for Chi, Gorilla, stdlib mux and similar routers:
// the wrapped handler runs inside the runtime's dispatch path and still
// benefits from panic isolation and error rendering.
func WrapHTTP(h http.Handler) Handler {
	return HandlerFunc(func(req *Request) (*Response, error) {
		rec := &responseRecorder{status: http.StatusOK, header: make(http.Header)}
		h.ServeHTTP(rec, req.HTTP)
		return &Response{
			StatusCode: rec.status,
			Header:     rec.header,
			Body:       rec.body.Bytes(),
		}, nil
	})
}

// responseRecorder captures an http.Handler's output so it can be replayed
// through the runtime's own response path.
type responseRecorder struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func (r *responseRecorder) Header() http.Header {
	return r.header
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	return r.body.Write(p)
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
}
