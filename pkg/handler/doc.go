// Package handler defines the request handler contract for the Citadel
// runtime and the error model that turns handler failures into well-formed
// responses.
//
// A Handler processes one request and returns a Response or an error. A
// NewHandler produces a Handler per request and is shared read-only across
// every worker, so implementations must be safe for concurrent use.
//
// Any error a handler returns is lifted into a HandlerError before it
// reaches the wire. The HandlerError keeps the underlying cause for the
// operator-facing log and renders a generic, status-derived body to the
// client:
//
//	func lookup(req *handler.Request) (*handler.Response, error) {
//	    data, err := store.Get(req.HTTP.URL.Path)
//	    if err != nil {
//	        return nil, handler.LiftError(err).WithStatus(http.StatusNotFound)
//	    }
//	    return handler.NewResponseWith(http.StatusOK, "application/json", data), nil
//	}
package handler
