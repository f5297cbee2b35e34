package handler

import (
	"fmt"
	"net/http"
)

// Response is a protocol response produced by a Handler or by the error
// model. The protocol driver owns turning it into wire bytes.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewResponse returns a Response for status with a generic, status-derived
// plain-text body. It is used for responses that carry no payload of their
// own, including every response rendered from a HandlerError.
func NewResponse(status int) *Response {
	text := http.StatusText(status)
	if text == "" {
		text = fmt.Sprintf("status %d", status)
	}

	h := make(http.Header)
	h.Set("Content-Type", "text/plain; charset=utf-8")
	return &Response{
		StatusCode: status,
		Header:     h,
		Body:       []byte(text + "\n"),
	}
}

// NewResponseWith returns a Response carrying body with the given content
// type.
func NewResponseWith(status int, contentType string, body []byte) *Response {
	h := make(http.Header)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &Response{
		StatusCode: status,
		Header:     h,
		Body:       body,
	}
}
