package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/fleet-adapter/internal/door"
	apperrors "github.com/darkkaiser/fleet-adapter/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopbackPublisher(t *testing.T) {
	bus := NewBroadcaster[door.Request]()
	defer bus.Close()

	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	p := NewLoopbackPublisher(bus)
	req := door.Request{DoorName: "main_door", RequestID: "req-1", Mode: door.ModeOpen}

	require.NoError(t, p.Publish(context.Background(), req))
	assert.Equal(t, req, <-ch)

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), req), door.ErrTransportClosed)
}

func TestLoopbackPublisher_ClosedBus(t *testing.T) {
	bus := NewBroadcaster[door.Request]()
	bus.Close()

	p := NewLoopbackPublisher(bus)
	err := p.Publish(context.Background(), door.Request{DoorName: "main_door", RequestID: "req-1"})
	assert.ErrorIs(t, err, door.ErrTransportClosed)
}

func TestHTTPPublisher_Publish(t *testing.T) {
	var (
		mu       sync.Mutex
		received []door.Request
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req door.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		mu.Lock()
		received = append(received, req)
		mu.Unlock()

		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p, err := NewHTTPPublisher(HTTPOptions{Endpoint: srv.URL, Timeout: time.Second})
	require.NoError(t, err)
	defer p.Close()

	req := door.Request{DoorName: "main_door", RequestID: "req-1", Mode: door.ModeOpen}
	require.NoError(t, p.Publish(context.Background(), req))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "req-1", received[0].RequestID)
	assert.Equal(t, door.ModeOpen, received[0].Mode)
}

func TestHTTPPublisher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "door offline", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, err := NewHTTPPublisher(HTTPOptions{Endpoint: srv.URL})
	require.NoError(t, err)
	defer p.Close()

	err = p.Publish(context.Background(), door.Request{DoorName: "main_door", RequestID: "req-1", Mode: door.ModeClosed})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ExecutionFailed))

	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Contains(t, statusErr.BodySnippet, "door offline")
}

func TestHTTPPublisher_RateLimitRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	p, err := NewHTTPPublisher(HTTPOptions{Endpoint: srv.URL, RateLimit: 0.001, Burst: 1})
	require.NoError(t, err)
	defer p.Close()

	req := door.Request{DoorName: "main_door", RequestID: "req-1", Mode: door.ModeOpen}
	require.NoError(t, p.Publish(context.Background(), req))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = p.Publish(ctx, req)
	assert.True(t, apperrors.Is(err, apperrors.Timeout))
}

func TestHTTPPublisher_Closed(t *testing.T) {
	_, err := NewHTTPPublisher(HTTPOptions{})
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))

	p, err := NewHTTPPublisher(HTTPOptions{Endpoint: "http://127.0.0.1:1"})
	require.NoError(t, err)
	require.NoError(t, p.Close())

	err = p.Publish(context.Background(), door.Request{DoorName: "main_door", RequestID: "req-1"})
	assert.ErrorIs(t, err, door.ErrTransportClosed)
}
