package protocol

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/citadel-web/citadel/pkg/handler"
)

// echoService responds 200 with the request path and records the requests
// it saw.
type echoService struct {
	ids []string
}

func (s *echoService) Serve(req *handler.Request) *handler.Response {
	s.ids = append(s.ids, req.ID)
	return handler.NewResponseWith(http.StatusOK, "text/plain", []byte(req.HTTP.URL.Path))
}

// serveRaw drives one server side of a pipe and returns the driver error.
func serveRaw(t *testing.T, svc Service) (client net.Conn, done <-chan error) {
	t.Helper()
	server, clientSide := net.Pipe()

	remote := &net.TCPAddr{IP: net.IPv4(10, 0, 0, 9), Port: 40000}
	errCh := make(chan error, 1)
	go func() {
		errCh <- NewHTTPDriver().ServeConn(context.Background(), server, remote, svc)
	}()
	return clientSide, errCh
}

func readResponse(t *testing.T, br *bufio.Reader) *http.Response {
	t.Helper()
	resp, err := http.ReadResponse(br, nil)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHTTPDriverSingleExchange(t *testing.T) {
	svc := &echoService{}
	client, done := serveRaw(t, svc)

	go func() {
		io.WriteString(client, "GET /hello HTTP/1.1\r\nHost: test\r\nConnection: close\r\n\r\n")
	}()

	br := bufio.NewReader(client)
	resp := readResponse(t, br)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "/hello" {
		t.Errorf("body = %q, want %q", body, "/hello")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ServeConn error = %v, want nil on clean close", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not finish after Connection: close")
	}

	if len(svc.ids) != 1 || svc.ids[0] == "" {
		t.Errorf("expected one request with a correlation ID, got %v", svc.ids)
	}
}

func TestHTTPDriverKeepAlive(t *testing.T) {
	svc := &echoService{}
	client, done := serveRaw(t, svc)

	go func() {
		io.WriteString(client, "GET /one HTTP/1.1\r\nHost: test\r\n\r\n")
	}()
	br := bufio.NewReader(client)
	resp := readResponse(t, br)
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "/one" {
		t.Fatalf("first body = %q", body)
	}

	go func() {
		io.WriteString(client, "GET /two HTTP/1.1\r\nHost: test\r\nConnection: close\r\n\r\n")
	}()
	resp = readResponse(t, br)
	body, _ = io.ReadAll(resp.Body)
	if string(body) != "/two" {
		t.Fatalf("second body = %q", body)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not finish")
	}

	if len(svc.ids) != 2 {
		t.Fatalf("served %d requests, want 2", len(svc.ids))
	}
	if svc.ids[0] == svc.ids[1] {
		t.Error("each request should get its own correlation ID")
	}
}

func TestHTTPDriverDrainsRequestBody(t *testing.T) {
	svc := &echoService{}
	client, done := serveRaw(t, svc)

	go func() {
		io.WriteString(client,
			"POST /upload HTTP/1.1\r\nHost: test\r\nContent-Length: 5\r\n\r\nhello"+
				"GET /after HTTP/1.1\r\nHost: test\r\nConnection: close\r\n\r\n")
	}()

	br := bufio.NewReader(client)
	first := readResponse(t, br)
	io.Copy(io.Discard, first.Body)
	resp := readResponse(t, br)
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "/after" {
		t.Errorf("second exchange body = %q; unread body bytes corrupted the stream", body)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not finish")
	}
}

func TestHTTPDriverPeerDisconnect(t *testing.T) {
	svc := &echoService{}
	client, done := serveRaw(t, svc)

	// Peer goes away without sending anything: a clean EOF, not an error.
	client.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ServeConn error = %v, want nil on EOF", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not finish after peer close")
	}
}

func TestHTTPDriverMalformedRequest(t *testing.T) {
	svc := &echoService{}
	client, done := serveRaw(t, svc)

	go func() {
		io.WriteString(client, "NOT A REQUEST\r\n\r\n")
		client.Close()
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Error("malformed request should surface a connection-local error")
		} else if !strings.Contains(err.Error(), "protocol:") {
			t.Errorf("error = %v, want protocol-tagged", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not finish")
	}

	if len(svc.ids) != 0 {
		t.Errorf("service should not see malformed requests, saw %d", len(svc.ids))
	}
}
