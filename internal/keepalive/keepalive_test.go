package keepalive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPing(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/health", r.URL.Path)
		hits.Add(1)
	}))
	defer srv.Close()

	p := New(Config{URL: srv.URL + "/health", Interval: time.Minute}, srv.Client())
	require.NoError(t, p.Ping(context.Background()))
	require.Equal(t, int32(1), hits.Load())
}

func TestPing_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := New(Config{URL: srv.URL}, srv.Client())
	require.Error(t, p.Ping(context.Background()))
}

func TestStart_Disabled(t *testing.T) {
	require.False(t, New(Config{Interval: time.Minute}, nil).Start())
}

func TestStart_KeepsPingingThroughFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the loop must survive error answers
		if hits.Add(1)%2 == 1 {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	p := New(Config{URL: srv.URL, Interval: 10 * time.Millisecond}, srv.Client())
	require.True(t, p.Start())
	require.True(t, p.Start())

	require.Eventually(t, func() bool { return hits.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}
