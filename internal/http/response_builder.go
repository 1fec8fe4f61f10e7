// Package http serves the transactions API.
//
// This file implements the builder for JSON envelope responses:
// {"ok":true,"data":...} on success and {"ok":false,"error":"..."} on
// failure.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the body of every API response.
type Envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// ResponseBuilder provides a fluent API for building envelope responses.
type ResponseBuilder struct {
	statusCode int
	ok         bool
	data       any
	message    string
	headers    map[string]string
}

// OK creates a 200 success response carrying data.
func OK(data any) *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		ok:         true,
		data:       data,
		headers:    make(map[string]string),
	}
}

// Fail creates an error response. The message is shown to the client.
func Fail(statusCode int, message string) *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: statusCode,
		message:    message,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the response. Marshal failures turn into a 500 envelope.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	body := map[string]any{"ok": b.ok}
	if b.ok {
		body["data"] = b.data
	} else {
		body["error"] = b.message
	}

	payload, err := json.Marshal(body)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		b.statusCode = http.StatusInternalServerError
		payload = []byte(`{"ok":false,"error":"Internal error"}`)
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
}

// BadRequest creates a 400 error response.
func BadRequest(message string) *ResponseBuilder {
	return Fail(http.StatusBadRequest, message)
}

// NotFound creates a 404 error response.
func NotFound(message string) *ResponseBuilder {
	return Fail(http.StatusNotFound, message)
}

// InternalError creates a 500 error response.
func InternalError(message string) *ResponseBuilder {
	return Fail(http.StatusInternalServerError, message)
}

// MethodNotAllowed creates a 405 error response with the Allow header.
func MethodNotAllowed(allowedMethods string) *ResponseBuilder {
	return Fail(http.StatusMethodNotAllowed, "Method not allowed").
		Header("Allow", allowedMethods)
}

// TooManyRequests creates a 429 error response.
func TooManyRequests() *ResponseBuilder {
	return Fail(http.StatusTooManyRequests, "Too many requests. Try again in a minute.").
		Header("Retry-After", "60")
}
