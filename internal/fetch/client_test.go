package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phanxgames/magstack"
)

func newTestServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var flaky atomic.Int32

	r := chi.NewRouter()
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "magstack", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"byte"}`))
	})
	r.Get("/flaky", func(w http.ResponseWriter, r *http.Request) {
		if flaky.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("finally"))
	})
	r.Get("/down", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	r.Get("/forbidden", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	r.Get("/garbage", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{"))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &flaky
}

func fastClient() *Client {
	return NewClient(WithRetry(3, time.Millisecond))
}

func TestGetJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	var v struct{ Name string }
	require.NoError(t, fastClient().GetJSON(context.Background(), srv.URL+"/ok", &v))
	assert.Equal(t, "byte", v.Name)

	err := fastClient().GetJSON(context.Background(), srv.URL+"/garbage", &v)
	require.Error(t, err)
	assert.NotErrorIs(t, err, magstack.ErrNetwork)
}

func TestGetStatusMapping(t *testing.T) {
	srv, _ := newTestServer(t)
	c := fastClient()
	ctx := context.Background()

	_, err := c.Get(ctx, srv.URL+"/missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Get(ctx, srv.URL+"/forbidden")
	assert.ErrorIs(t, err, magstack.ErrNetwork)

	_, err = c.Get(ctx, srv.URL+"/down")
	assert.ErrorIs(t, err, magstack.ErrNetwork)
	assert.False(t, IsRetryable(err), "retry marker leaked to the caller")
}

func TestGetRetriesTransientFailures(t *testing.T) {
	srv, calls := newTestServer(t)

	body, err := fastClient().Get(context.Background(), srv.URL+"/flaky")
	require.NoError(t, err)
	assert.Equal(t, "finally", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetContextCancelled(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(WithRetry(3, time.Hour)).Get(ctx, srv.URL+"/down")
	assert.Error(t, err)
}

func TestGetUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(WithRetry(1, 0)).Get(context.Background(), url)
	assert.ErrorIs(t, err, magstack.ErrNetwork)
}
