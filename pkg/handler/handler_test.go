package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandlerFunc(t *testing.T) {
	called := false
	h := HandlerFunc(func(req *Request) (*Response, error) {
		called = true
		return NewResponse(http.StatusOK), nil
	})

	resp, err := h.Handle(&Request{ID: "r1"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if !called {
		t.Error("wrapped function was not called")
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestNewHandlerFunc(t *testing.T) {
	nh := NewHandlerFunc(func() (Handler, error) {
		return HandlerFunc(func(*Request) (*Response, error) {
			return NewResponse(http.StatusNoContent), nil
		}), nil
	})

	h, err := nh.NewHandler()
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	resp, err := h.Handle(&Request{})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}

func TestStatic(t *testing.T) {
	h := HandlerFunc(func(*Request) (*Response, error) {
		return nil, errors.New("boom")
	})
	nh := Static(h)

	for i := 0; i < 3; i++ {
		got, err := nh.NewHandler()
		if err != nil {
			t.Fatalf("NewHandler() error = %v", err)
		}
		if _, err := got.Handle(&Request{}); err == nil {
			t.Error("expected the same failing handler back")
		}
	}
}

func TestWrapHTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/greet", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Custom", "yes")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("hello"))
	})

	wrapped := WrapHTTP(mux)

	t.Run("matched route", func(t *testing.T) {
		req := &Request{
			ID:   "r1",
			HTTP: httptest.NewRequest(http.MethodGet, "/greet", nil),
		}
		resp, err := wrapped.Handle(req)
		if err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		if resp.StatusCode != http.StatusAccepted {
			t.Errorf("status = %d, want 202", resp.StatusCode)
		}
		if string(resp.Body) != "hello" {
			t.Errorf("body = %q, want %q", resp.Body, "hello")
		}
		if resp.Header.Get("X-Custom") != "yes" {
			t.Error("header from wrapped handler was dropped")
		}
	})

	t.Run("unmatched route", func(t *testing.T) {
		req := &Request{
			ID:   "r2",
			HTTP: httptest.NewRequest(http.MethodGet, "/missing", nil),
		}
		resp, err := wrapped.Handle(req)
		if err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("implicit 200", func(t *testing.T) {
		quiet := WrapHTTP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		}))
		resp, err := quiet.Handle(&Request{
			HTTP: httptest.NewRequest(http.MethodGet, "/", nil),
		})
		if err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})
}

func TestNewResponse(t *testing.T) {
	tests := []struct {
		status   int
		wantBody string
	}{
		{http.StatusOK, "OK\n"},
		{http.StatusNotFound, "Not Found\n"},
		{http.StatusInternalServerError, "Internal Server Error\n"},
		{599, "status 599\n"},
	}

	for _, tt := range tests {
		resp := NewResponse(tt.status)
		if resp.StatusCode != tt.status {
			t.Errorf("NewResponse(%d).StatusCode = %d", tt.status, resp.StatusCode)
		}
		if string(resp.Body) != tt.wantBody {
			t.Errorf("NewResponse(%d).Body = %q, want %q", tt.status, resp.Body, tt.wantBody)
		}
	}
}

func TestNewResponseWith(t *testing.T) {
	resp := NewResponseWith(http.StatusCreated, "application/json", []byte(`{"id":1}`))
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	if string(resp.Body) != `{"id":1}` {
		t.Errorf("body = %q", resp.Body)
	}
}
