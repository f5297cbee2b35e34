// Package protocol defines the wire-level driver contract consumed by the
// Citadel workers and provides the default HTTP/1.x driver.
//
// A Driver owns one accepted connection for its whole lifetime: it parses
// requests off the raw byte stream, hands each to the per-connection
// Service, and writes the resulting responses back until the peer closes
// or the stream fails. A Driver never sees handler errors; the Service
// has already rendered them into ordinary responses.
package protocol

import (
	"context"
	"net"

	"github.com/citadel-web/citadel/pkg/handler"
)

// Service is the per-connection dispatch unit a driver exchanges requests
// with. Serve is infallible: failures inside the handler stack have been
// rendered into a response before they reach the driver.
type Service interface {
	Serve(req *handler.Request) *handler.Response
}

// Driver performs the request/response exchanges over one raw connection.
type Driver interface {
	// ServeConn drives conn until the peer closes or the exchange fails.
	// The driver closes conn before returning. A returned error is
	// connection-local; it never affects the owning worker.
	ServeConn(ctx context.Context, conn net.Conn, remote net.Addr, svc Service) error
}
