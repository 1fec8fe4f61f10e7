// This file implements reading and validating JSON request bodies.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// MaxBodyBytes bounds every request body.
const MaxBodyBytes = 32 * 1024

// JSONBody is a decoded request object whose fields are read on demand so
// type errors can name the offending field.
type JSONBody map[string]json.RawMessage

// ReadJSONObject reads a JSON object body. On failure it returns the
// response to send instead.
func ReadJSONObject(r *http.Request) (JSONBody, *ResponseBuilder) {
	if r.Body == nil {
		return nil, BadRequest("Empty request body")
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, BadRequest("Failed to read request body")
	}
	if len(raw) > MaxBodyBytes {
		return nil, Fail(http.StatusRequestEntityTooLarge, "Request body too large")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, BadRequest("Empty request body")
	}
	if raw[0] != '{' {
		if !json.Valid(raw) {
			return nil, BadRequest("Invalid JSON")
		}
		return nil, BadRequest("JSON body must be an object")
	}

	var body JSONBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, BadRequest("Invalid JSON")
	}
	return body, nil
}

var errWrongType = errors.New("wrong type")

// String returns the field as a string. Missing and null fields yield
// ok=false with no error.
func (b JSONBody) String(key string) (value string, ok bool, err error) {
	raw, present := b[key]
	if !present || string(raw) == "null" {
		return "", false, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false, errWrongType
	}
	return sanitizeInput(value), true, nil
}

// Int64 accepts a JSON integer or a string holding one.
func (b JSONBody) Int64(key string) (value int64, ok bool, err error) {
	raw, present := b[key]
	if !present || string(raw) == "null" {
		return 0, false, nil
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		raw = json.RawMessage(strings.TrimSpace(s))
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, false, errWrongType
	}
	return n, true, nil
}

// Float64 accepts a JSON number or a string holding one; a comma may
// stand for the decimal point. Booleans, NaN and infinities are rejected.
func (b JSONBody) Float64(key string) (value float64, ok bool, err error) {
	raw, present := b[key]
	if !present || string(raw) == "null" {
		return 0, false, nil
	}
	text := string(raw)
	var s string
	if json.Unmarshal(raw, &s) == nil {
		text = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, errWrongType
	}
	return f, true, nil
}

var errWrongElement = errors.New("wrong element type")

// Strings returns the field as an array of strings. A value that is not
// an array yields errWrongType; a non-string element yields
// errWrongElement.
func (b JSONBody) Strings(key string) (values []string, ok bool, err error) {
	raw, present := b[key]
	if !present || string(raw) == "null" {
		return nil, false, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, errWrongType
	}
	values = make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, false, errWrongElement
		}
		values = append(values, sanitizeInput(s))
	}
	return values, true, nil
}

// RequireMethod returns a 405 response unless the method is one of methods.
func RequireMethod(r *http.Request, methods ...string) *ResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowed(strings.Join(methods, ", "))
}

// sanitizeInput removes control characters except tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
