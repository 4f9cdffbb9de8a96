package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/socialscope/tracker/internal/tracker"
)

func TestSendDeliversPayload(t *testing.T) {
	t.Parallel()

	var got tracker.ResultPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(server.URL, 3, time.Millisecond, time.Second, zap.NewNop())
	ok := c.Send(context.Background(), tracker.ResultPayload{
		ProfileID: 42,
		UserID:    7,
		Platform:  "instagram",
		Username:  "nasa",
		Provider:  "default",
		Status:    "completed",
	})
	require.True(t, ok)
	require.Equal(t, int64(42), got.ProfileID)
	require.Equal(t, tracker.StatusCompleted, got.Status)
}

func TestSendRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(server.URL, 3, time.Millisecond, time.Second, zap.NewNop())
	require.True(t, c.Send(context.Background(), tracker.ResultPayload{ProfileID: 1, Status: "completed"}))
	require.Equal(t, int32(3), calls.Load())
}

func TestSendGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, 3, time.Millisecond, time.Second, zap.NewNop())
	require.False(t, c.Send(context.Background(), tracker.ResultPayload{ProfileID: 1, Status: "error"}))
	require.Equal(t, int32(3), calls.Load())
}

func TestSendStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(server.URL, 5, time.Hour, time.Second, zap.NewNop())
	require.False(t, c.Send(ctx, tracker.ResultPayload{ProfileID: 1, Status: "error"}))
}
