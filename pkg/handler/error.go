package handler

import (
	"errors"
	"log/slog"
	"net/http"
)

// HandlerError describes a failure that occurred while handling a request.
// It pairs an opaque cause with the protocol status the response should
// carry. The zero value is not valid; use LiftError.
type HandlerError struct {
	statusCode int
	cause      error
}

// LiftError lifts an arbitrary error into a HandlerError with a status of
// 500 Internal Server Error. Use WithStatus to override the status where
// the call site knows better.
func LiftError(cause error) *HandlerError {
	if cause == nil {
		cause = errors.New("handler: unspecified failure")
	}
	slog.Debug("lifting error into handler error", "error", cause)

	return &HandlerError{
		statusCode: http.StatusInternalServerError,
		cause:      cause,
	}
}

// WithStatus returns a copy of e with the given status code. The receiver
// is left unchanged; when chained, the last call wins.
func (e *HandlerError) WithStatus(status int) *HandlerError {
	return &HandlerError{
		statusCode: status,
		cause:      e.cause,
	}
}

// StatusCode returns the protocol status the rendered response will carry.
func (e *HandlerError) StatusCode() int {
	return e.statusCode
}

// Error implements the error interface. The message is deliberately
// generic; the cause is only reachable through Unwrap and the diagnostic
// log written by Response.
func (e *HandlerError) Error() string {
	return "handler failed to process request"
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *HandlerError) Unwrap() error {
	return e.cause
}

// Response renders e into a protocol response. The body is derived from
// the status code alone; the cause is logged against the request's
// correlation ID and never transmitted to the peer. Rendering cannot fail.
func (e *HandlerError) Response(req *Request) *Response {
	var (
		requestID string
		remote    any
	)
	if req != nil {
		requestID = req.ID
		remote = req.RemoteAddr
	}
	slog.Debug("handler error generating response",
		"request_id", requestID,
		"remote", remote,
		"status", e.statusCode,
		"cause", e.cause)

	return NewResponse(e.statusCode)
}
