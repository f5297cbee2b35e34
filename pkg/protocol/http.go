package protocol

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/citadel-web/citadel/pkg/handler"
)

// HTTPDriver exchanges HTTP/1.x requests and responses over a raw
// connection. Keep-alive is honored; each request gets a fresh
// correlation ID.
type HTTPDriver struct {
	logger *slog.Logger
}

// NewHTTPDriver returns the default HTTP/1.x driver.
func NewHTTPDriver() *HTTPDriver {
	return &HTTPDriver{
		logger: slog.Default().With("component", "protocol"),
	}
}

// ServeConn reads requests off conn and writes the service's responses
// back until the peer closes, asks to close, or the stream fails.
func (d *HTTPDriver) ServeConn(ctx context.Context, conn net.Conn, remote net.Addr, svc Service) error {
	defer conn.Close()

	br := bufio.NewReader(conn)
	bw := bufio.NewWriter(conn)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		req, err := http.ReadRequest(br)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("protocol: read request: %w", err)
		}
		req.RemoteAddr = remote.String()

		hreq := &handler.Request{
			ID:         uuid.NewString(),
			RemoteAddr: remote,
			HTTP:       req.WithContext(ctx),
		}
		resp := svc.Serve(hreq)

		// Unread body bytes would be parsed as the next request line.
		io.Copy(io.Discard, req.Body)
		req.Body.Close()

		// ReadRequest sets Close for HTTP/1.0 without keep-alive and for
		// an explicit Connection: close.
		closing := req.Close

		if err := writeResponse(bw, req, resp, closing); err != nil {
			return fmt.Errorf("protocol: write response: %w", err)
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("protocol: flush response: %w", err)
		}

		d.logger.Debug("exchange complete",
			"request_id", hreq.ID,
			"remote", remote,
			"method", req.Method,
			"path", req.URL.Path,
			"status", resp.StatusCode)

		if closing {
			return nil
		}
	}
}

// writeResponse serializes resp in the wire format matching the request's
// protocol version.
func writeResponse(w io.Writer, req *http.Request, resp *handler.Response, closing bool) error {
	header := resp.Header
	if header == nil {
		header = make(http.Header)
	}

	wire := &http.Response{
		StatusCode:    resp.StatusCode,
		ProtoMajor:    req.ProtoMajor,
		ProtoMinor:    req.ProtoMinor,
		Header:        header,
		ContentLength: int64(len(resp.Body)),
		Body:          io.NopCloser(bytes.NewReader(resp.Body)),
		Request:       req,
		Close:         closing,
	}
	return wire.Write(w)
}
