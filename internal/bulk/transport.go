package bulk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/FloThinksPi-Forks/vstutils/internal/util"
	"github.com/shopmonkeyus/go-common/logger"
)

// DefaultEndpoint is the path of the bulk endpoint relative to the API url.
const DefaultEndpoint = "/api/endpoint/"

// Transport sends an ordered array of requests and returns the responses in the same order.
type Transport interface {
	Do(ctx context.Context, reqs []Request) ([]Response, error)
}

// TransportFunc adapts a function to a Transport.
type TransportFunc func(ctx context.Context, reqs []Request) ([]Response, error)

func (f TransportFunc) Do(ctx context.Context, reqs []Request) ([]Response, error) {
	return f(ctx, reqs)
}

// HTTPTransportConfig configures the HTTP transport.
type HTTPTransportConfig struct {
	URL      string
	Endpoint string
	Token    string
	Headers  map[string]string
	Client   *http.Client
	Logger   logger.Logger
}

// HTTPTransport sends transactions as a PUT of the JSON request array.
type HTTPTransport struct {
	url     string
	token   string
	headers map[string]string
	client  *http.Client
	logger  logger.Logger
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport returns a transport for the bulk endpoint of the API at config.URL.
func NewHTTPTransport(config HTTPTransportConfig) *HTTPTransport {
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	client := config.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{
		url:     strings.TrimRight(config.URL, "/") + endpoint,
		token:   config.Token,
		headers: config.Headers,
		client:  client,
		logger:  config.Logger,
	}
}

// URL returns the bulk endpoint url.
func (t *HTTPTransport) URL() string {
	return t.url
}

func (t *HTTPTransport) Do(ctx context.Context, reqs []Request) ([]Response, error) {
	buf, err := json.Marshal(reqs)
	if err != nil {
		return nil, fmt.Errorf("error encoding bulk request: %w", err)
	}
	req, err := util.NewRequest(ctx, http.MethodPut, t.url, buf)
	if err != nil {
		return nil, fmt.Errorf("error creating bulk request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	opts := []util.HTTPRetryOption{util.WithClient(t.client), util.WithIdempotent(readOnly(reqs))}
	if t.logger != nil {
		opts = append(opts, util.WithLogger(t.logger))
	}
	resp, err := util.NewHTTPRetry(req, opts...).Do()
	if err != nil {
		return nil, fmt.Errorf("error sending bulk request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading bulk response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bulk request failed with status %d: %s", resp.StatusCode, detail(body))
	}
	var res []Response
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("error decoding bulk response: %w", err)
	}
	return res, nil
}

// readOnly reports if every part of the transaction is a GET, so that sending it
// twice has no effect on the server.
func readOnly(reqs []Request) bool {
	for _, req := range reqs {
		if req.Method != http.MethodGet {
			return false
		}
	}
	return true
}
