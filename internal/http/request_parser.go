// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP
// request data: bearer tokens, month selectors and JSON bodies whose
// numeric fields may arrive as strings with a decimal comma.

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// maxBodySize caps request bodies; every payload here is tiny.
const maxBodySize = 64 << 10

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// parseYearMonth extracts year and month (0-11) from query
// parameters, falling back to the given defaults when absent or
// unparseable.
func parseYearMonth(r *http.Request, defYear, defMonth int) (year, month int) {
	year, month = defYear, defMonth

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}

	return year, month
}

// RequestBodyParser reads a JSON request body once and serves typed
// lookups over it. Numeric fields are also accepted as strings, the
// shape text inputs produce.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	parsed   bool
	err      error
}

// NewRequestBodyParser creates a parser for the given request.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	return p
}

// Parse decodes the body. An empty body parses as an empty object.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}
	if len(p.body) == 0 {
		p.jsonData = map[string]any{}
		return nil
	}

	p.jsonData = make(map[string]any)
	if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
		p.err = err
		return err
	}
	return nil
}

// Get returns a string value from the parsed body.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData == nil {
		return ""
	}
	val, ok := p.jsonData[key]
	if !ok {
		return ""
	}
	return strings.TrimSpace(sanitizeInput(stringValue(val)))
}

// Has reports whether the key was present in the body.
func (p *RequestBodyParser) Has(key string) bool {
	_, ok := p.jsonData[key]
	return ok
}

// GetBool returns a boolean value; absent or malformed reads false.
func (p *RequestBodyParser) GetBool(key string) bool {
	if p.jsonData == nil {
		return false
	}
	switch val := p.jsonData[key].(type) {
	case bool:
		return val
	case string:
		b, _ := strconv.ParseBool(val)
		return b
	default:
		return false
	}
}

// GetInt returns an integer value, or def when absent or malformed.
func (p *RequestBodyParser) GetInt(key string, def int) int {
	s := p.Get(key)
	if s == "" {
		return def
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return def
}

// stringValue converts a decoded JSON value to a string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}
