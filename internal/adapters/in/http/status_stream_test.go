package http_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"orderflow/internal/adapters/out/notify"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusHub_StreamsEventsToClients(t *testing.T) {
	// Given a connected websocket client
	f := newFixture(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/orders"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return f.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	// When
	event := notify.StatusEvent{
		OrderID:   "0b6f4a3e-1d2c-4b5a-9e8f-7a6b5c4d3e2f",
		OldStatus: "processing",
		NewStatus: "completed",
		ChangedBy: "worker-1",
		Timestamp: "2025-03-01T09:30:05.000000000Z",
	}
	f.hub.Broadcast(event)

	// Then
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got notify.StatusEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, event, got)
}

func TestStatusHub_ForgetsDisconnectedClients(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/orders"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return f.hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
