package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRetryClientSucceedsAfterRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewRetryClient(srv.Client(), 3, time.Millisecond, zap.NewNop())
	var out map[string]any
	err := client.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, &out)
	require.NoError(t, err)
	require.Equal(t, true, out["ok"])
	require.Equal(t, int32(3), calls.Load())
}

func TestRetryClientExhaustsAttempts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	client := NewRetryClient(srv.Client(), 3, time.Millisecond, zap.NewNop())
	err := client.DoJSON(context.Background(), http.MethodPost, srv.URL, map[string]any{"a": 1}, nil)
	require.Error(t, err)
	require.Equal(t, int32(3), calls.Load())

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusTooManyRequests, httpErr.Status)
}

func TestRetryClientContextCancelStopsWaiting(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewRetryClient(srv.Client(), 5, time.Minute, zap.NewNop())
	err := client.DoJSON(ctx, http.MethodGet, srv.URL, nil, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSanitizePreservesHTTPDetails(t *testing.T) {
	t.Parallel()

	err := &HTTPError{URL: "https://api.example.com/run", Method: "POST", Status: 403, Data: map[string]any{"error": "forbidden"}}
	clean := Sanitize(err)
	require.Equal(t, "HTTPError", clean.Name)
	require.Equal(t, "https://api.example.com/run", clean.Config.URL)
	require.Equal(t, "POST", clean.Config.Method)
	require.Equal(t, 403, clean.Response.Status)

	plain := Sanitize(errors.New("boom"))
	require.Equal(t, "boom", plain.Message)
	require.Nil(t, plain.Config)
	require.Nil(t, Sanitize(nil))
}
