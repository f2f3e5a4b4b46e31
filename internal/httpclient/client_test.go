package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_SetsUserAgentAndReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "shelfwise-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "text/html", r.Header.Get("Accept"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), 0, WithUserAgent("shelfwise-test"))
	resp, err := c.Get(context.Background(), srv.URL, "text/html")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGet_NonSuccessIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), 0)
	_, err := c.Get(context.Background(), srv.URL, "")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestDo_RetriesThrottledResponses(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), 0, WithRetryBase(time.Millisecond))
	resp, err := c.Get(context.Background(), srv.URL, "")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDo_DoesNotRetryServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), 0, WithRetryBase(time.Millisecond))
	_, err := c.Get(context.Background(), srv.URL, "")
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_GivesUpAfterRetryCount(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), 0, WithRetryBase(time.Millisecond))
	_, err := c.Get(context.Background(), srv.URL, "")
	assert.True(t, IsStatus(err, http.StatusServiceUnavailable))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDo_SpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := NewClient(srv.Client(), 40*time.Millisecond)
	start := time.Now()
	for i := 0; i < 3; i++ {
		resp, err := c.Get(context.Background(), srv.URL, "")
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestDo_CancelledContext(t *testing.T) {
	c := NewClient(nil, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Get(ctx, "http://127.0.0.1:1/", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, time.Duration(0), parseRetryAfter(resp))

	resp.Header.Set("Retry-After", "2")
	assert.Equal(t, 2*time.Second, parseRetryAfter(resp))

	resp.Header.Set("Retry-After", "garbage")
	assert.Equal(t, time.Duration(0), parseRetryAfter(resp))
}
