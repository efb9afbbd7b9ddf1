package bulk

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrClosed is returned for requests enqueued after the connector was closed.
var ErrClosed = errors.New("bulk connector is closed")

// StatusError is returned for a logical request whose status is outside 200..399.
type StatusError struct {
	Status int
	Detail string
	Method string
	Path   []string
	Data   json.RawMessage
}

var _ error = (*StatusError)(nil)

func (e *StatusError) Error() string {
	path := "/" + strings.Join(e.Path, "/") + "/"
	if e.Detail != "" {
		return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, path, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s failed with status %d", e.Method, path, e.Status)
}

func newStatusError(req Request, resp *Response) *StatusError {
	return &StatusError{
		Status: resp.Status,
		Detail: detail(resp.Data),
		Method: req.Method,
		Path:   req.Path,
		Data:   resp.Data,
	}
}

// detail extracts a message from the error payloads the API returns.
func detail(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			if v, ok := obj[key]; ok {
				return fmt.Sprint(v)
			}
		}
		return string(data)
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		return str
	}
	return string(data)
}

// TransportError is returned to every request of a transaction which could not be completed.
type TransportError struct {
	TransactionID string
	Err           error
}

var _ error = (*TransportError)(nil)

func (e *TransportError) Error() string {
	return fmt.Sprintf("bulk transaction %s failed: %s", e.TransactionID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusOf returns the status of a StatusError in the chain, or 0.
func StatusOf(err error) int {
	var serr *StatusError
	if errors.As(err, &serr) {
		return serr.Status
	}
	return 0
}

// IsTransportError returns true if err is or wraps a TransportError.
func IsTransportError(err error) bool {
	var terr *TransportError
	return errors.As(err, &terr)
}
