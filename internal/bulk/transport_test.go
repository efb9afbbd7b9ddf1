package bulk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopmonkeyus/go-common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/endpoint/", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "ru", r.Header.Get("Accept-Language"))
		var reqs []Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqs))
		res := make([]map[string]any, len(reqs))
		for i, req := range reqs {
			res[i] = map[string]any{"method": req.Method, "path": req.Path, "status": 200 + i, "data": map[string]any{"q": req.Query}}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(res)
	}))
	defer srv.Close()

	transport := NewHTTPTransport(HTTPTransportConfig{
		URL:     srv.URL + "/",
		Token:   "secret",
		Headers: map[string]string{"Accept-Language": "ru"},
		Logger:  logger.NewTestLogger(),
	})
	assert.Equal(t, srv.URL+"/api/endpoint/", transport.URL())
	resps, err := transport.Do(context.Background(), []Request{
		Get([]string{"user"}, "limit=1"),
		{Method: http.MethodPost, Path: []string{"user"}, Data: map[string]any{"name": "x"}},
	})
	require.NoError(t, err)
	require.Len(t, resps, 2)
	assert.Equal(t, 200, resps[0].Status)
	assert.Equal(t, 201, resps[1].Status)
	var data map[string]string
	require.NoError(t, resps[0].Decode(&data))
	assert.Equal(t, "limit=1", data["q"])
}

func TestHTTPTransportRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var reqs []Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqs))
		assert.Len(t, reqs, 1)
		w.Write([]byte(`[{"status":200,"data":{}}]`))
	}))
	defer srv.Close()

	transport := NewHTTPTransport(HTTPTransportConfig{URL: srv.URL})
	resps, err := transport.Do(context.Background(), []Request{Get([]string{"a"}, "")})
	require.NoError(t, err)
	require.Len(t, resps, 1)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestHTTPTransportWritesAreNotResent(t *testing.T) {
	for _, status := range []int{http.StatusRequestTimeout, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout} {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(status)
		}))

		c := NewConnector(ConnectorConfig{
			Logger:    logger.NewTestLogger(),
			Transport: NewHTTPTransport(HTTPTransportConfig{URL: srv.URL}),
		})
		get := c.Enqueue(Get([]string{"user"}, ""))
		post := c.Enqueue(Request{Method: http.MethodPost, Path: []string{"user"}, Data: map[string]any{"username": "x"}})
		_, err := post.Wait(context.Background())
		require.Error(t, err)
		assert.True(t, IsTransportError(err))
		_, err = get.Wait(context.Background())
		assert.True(t, IsTransportError(err))
		assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "status %d", status)
		c.Close()
		srv.Close()
	}
}

func TestHTTPTransportWriteRetryAfter(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"status":201,"data":{"id":1}}]`))
	}))
	defer srv.Close()

	resps, err := NewHTTPTransport(HTTPTransportConfig{URL: srv.URL}).Do(context.Background(), []Request{
		{Method: http.MethodDelete, Path: []string{"user", "1"}},
	})
	require.NoError(t, err)
	require.Len(t, resps, 1)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestReadOnly(t *testing.T) {
	assert.True(t, readOnly(nil))
	assert.True(t, readOnly([]Request{Get([]string{"a"}, ""), Get([]string{"b"}, "")}))
	assert.False(t, readOnly([]Request{Get([]string{"a"}, ""), {Method: http.MethodPatch, Path: []string{"a", "1"}}}))
}

func TestHTTPTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Authentication credentials were not provided."}`))
	}))
	defer srv.Close()

	c := NewConnector(ConnectorConfig{
		Logger:    logger.NewTestLogger(),
		Transport: NewHTTPTransport(HTTPTransportConfig{URL: srv.URL}),
	})
	defer c.Close()
	_, err := c.Query(context.Background(), Get([]string{"a"}, ""))
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "Authentication credentials")
}

func TestHTTPTransportMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()
	_, err := NewHTTPTransport(HTTPTransportConfig{URL: srv.URL}).Do(context.Background(), []Request{Get([]string{"a"}, "")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error decoding bulk response")
}

func TestGetSystemStats(t *testing.T) {
	stats, err := GetSystemStats()
	require.NoError(t, err)
	assert.NotNil(t, stats.Memory)
}
