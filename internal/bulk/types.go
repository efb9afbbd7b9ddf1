// Package bulk coalesces logical API requests issued within a short window into
// one physical transaction against the bulk endpoint.
package bulk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Request is one logical operation inside a transaction.
type Request struct {
	Method  string            `json:"method"`
	Path    []string          `json:"path"`
	Query   string            `json:"query,omitempty"`
	Data    any               `json:"data,omitempty"`
	Version string            `json:"version,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

func (r Request) String() string {
	path := "/" + strings.Join(r.Path, "/") + "/"
	if r.Query != "" {
		path += "?" + r.Query
	}
	return fmt.Sprintf("%s %s", r.Method, path)
}

// Get builds a GET request.
func Get(path []string, query string) Request {
	return Request{Method: http.MethodGet, Path: path, Query: query}
}

// Response is the result of one logical operation, in the same position as its request.
type Response struct {
	Method string          `json:"method,omitempty"`
	Path   json.RawMessage `json:"path,omitempty"`
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Info   json.RawMessage `json:"info,omitempty"`
}

// OK reports if the status is in the 200..399 range.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 400
}

// Decode unmarshals the response data into v.
func (r *Response) Decode(v any) error {
	if len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("error decoding response data: %w", err)
	}
	return nil
}
