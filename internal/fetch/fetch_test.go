package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	o := DefaultOptions()
	o.RetryBase = time.Millisecond
	o.RetryMax = 5 * time.Millisecond
	o.Cooldown = time.Millisecond
	o.MaxAttempts = 4
	o.RPS = 0
	return o
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls int32
	var ua, lang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		ua, lang = r.Header.Get("User-Agent"), r.Header.Get("Accept-Language")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	body, err := New(testOptions()).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "<html>ok</html>", body)
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
	require.Equal(t, DefaultUserAgent, ua)
	require.Equal(t, "en-US,en;q=0.9", lang)
}

func TestGet_DoesNotRetryNotFound(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(testOptions()).Get(context.Background(), srv.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 404")
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGet_ExhaustedRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(testOptions()).Get(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestParseRetryAfter(t *testing.T) {
	require.Equal(t, 3*time.Second, parseRetryAfter("3"))
	require.Zero(t, parseRetryAfter(""))
	require.Zero(t, parseRetryAfter("soon"))
}

func TestJitter(t *testing.T) {
	j := Jitter{Min: 10 * time.Millisecond, Max: 20 * time.Millisecond}
	for i := 0; i < 50; i++ {
		d := j.Duration()
		require.GreaterOrEqual(t, d, j.Min)
		require.LessOrEqual(t, d, j.Max)
	}
	require.Zero(t, Jitter{}.Duration())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Jitter{Min: time.Hour}.Wait(ctx), context.Canceled)
}
