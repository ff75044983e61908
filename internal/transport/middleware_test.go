package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "server")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithMiddleware(tag("first"), tag("second")))
	require.NoError(t, c.Get(context.Background(), "/", nil))
	assert.Equal(t, []string{"first", "second", "server"}, order)
}

func TestRequestID(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get(RequestIDHeader))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithMiddleware(RequestID()))

	require.NoError(t, c.Get(context.Background(), "/", nil))
	require.NoError(t, c.Get(ContextWithRequestID(context.Background(), "pinned"), "/", nil))
	require.NoError(t, New(srv.URL, WithHeader(RequestIDHeader, "fixed"), WithMiddleware(RequestID())).Get(context.Background(), "/", nil))

	require.Len(t, got, 3)
	_, err := uuid.Parse(got[0])
	assert.NoError(t, err)
	assert.Equal(t, "pinned", got[1])
	assert.Equal(t, "fixed", got[2])
}

func TestUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.UserAgent()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL, WithMiddleware(UserAgent("voicedesk/test"))).Get(context.Background(), "/", nil))
	assert.Equal(t, "voicedesk/test", got)
}

func TestMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var counters Counters
	c := New(srv.URL, WithMiddleware(Metrics(&counters)))

	_ = c.Get(context.Background(), "/ok", nil)
	_ = c.Get(context.Background(), "/fail", nil)
	_ = c.Get(context.Background(), "/ok", nil)

	assert.Equal(t, int64(3), counters.Requests.Load())
	assert.Equal(t, int64(1), counters.Errors.Load())
}

func TestRateLimit_WaitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	// One token, refilled once per minute.
	c := New(srv.URL, WithMiddleware(RateLimit(1.0/60, 1)))
	require.NoError(t, c.Get(context.Background(), "/", nil))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.Get(ctx, "/", nil)

	var netErr *NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithMiddleware(RequestID(), Logging(zap.New(core))))
	_ = c.Get(context.Background(), "/ok", nil)
	_ = c.Get(context.Background(), "/missing", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, zap.InfoLevel, entries[1].Level)

	fields := entries[1].ContextMap()
	assert.Equal(t, "/missing", fields["path"])
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}
