package util

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopmonkeyus/go-common/logger"
	"golang.org/x/exp/rand"
)

const maxAttempts = 3

type HTTPRetry struct {
	attempts   int
	req        *http.Request
	client     *http.Client
	logger     logger.Logger
	idempotent bool
}

func (r *HTTPRetry) shouldRetry(resp *http.Response, err error) bool {
	if r.attempts >= maxAttempts {
		return false
	}
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "connection refused") {
			return true
		}
		if r.idempotent && strings.Contains(msg, "connection reset") {
			return true
		}
	}
	if resp != nil && r.retryStatus(resp) {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return true
	}
	return false
}

// retryStatus reports if the status allows another attempt. A request which may
// have been applied is only retried when the server asks for it with Retry-After
// on 429 or 503.
func (r *HTTPRetry) retryStatus(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return r.idempotent || resp.Header.Get("Retry-After") != ""
	case http.StatusRequestTimeout, http.StatusBadGateway, http.StatusGatewayTimeout:
		return r.idempotent
	}
	return false
}

// Do sends the request, retrying with jitter on transient failures. The request
// body is rewound with GetBody between attempts.
func (r *HTTPRetry) Do() (*http.Response, error) {
	r.attempts++
	resp, err := r.client.Do(r.req)
	if r.shouldRetry(resp, err) {
		jitter := time.Duration(time.Millisecond*100 + time.Millisecond*time.Duration(rand.Int63n(int64(500*r.attempts))))
		if r.logger != nil {
			var code int
			if resp != nil {
				code = resp.StatusCode
			}
			r.logger.Trace("request failed (path: %s) (status: %d), retrying request in %v", r.req.URL.String(), code, jitter)
		}
		if r.req.GetBody != nil {
			body, berr := r.req.GetBody()
			if berr != nil {
				return nil, berr
			}
			r.req.Body = body
		}
		select {
		case <-r.req.Context().Done():
			return nil, r.req.Context().Err()
		case <-time.After(jitter):
		}
		return r.Do()
	}
	return resp, err
}

type HTTPRetryOption func(*HTTPRetry)

func WithLogger(logger logger.Logger) HTTPRetryOption {
	return func(r *HTTPRetry) {
		r.logger = logger
	}
}

// WithIdempotent marks whether the request may be applied twice. Requests are
// idempotent unless set otherwise.
func WithIdempotent(idempotent bool) HTTPRetryOption {
	return func(r *HTTPRetry) {
		r.idempotent = idempotent
	}
}

// WithClient sets the http client, http.DefaultClient is used otherwise.
func WithClient(client *http.Client) HTTPRetryOption {
	return func(r *HTTPRetry) {
		if client != nil {
			r.client = client
		}
	}
}

// NewHTTPRetry creates a new utility for retrying HTTP requests.
func NewHTTPRetry(req *http.Request, opts ...HTTPRetryOption) *HTTPRetry {
	retry := HTTPRetry{
		req:        req,
		client:     http.DefaultClient,
		idempotent: true,
	}
	for _, opt := range opts {
		opt(&retry)
	}
	return &retry
}

// NewRequest is http.NewRequestWithContext with a byte body that can be rewound.
func NewRequest(ctx context.Context, method string, url string, body []byte) (*http.Request, error) {
	if body == nil {
		return http.NewRequestWithContext(ctx, method, url, nil)
	}
	return http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
}
