package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musicalia/avatar-gateway/internal/pipeline"
)

func (h *Hub) observers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHubPublish(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.observers() == 1 },
		time.Second, 10*time.Millisecond)

	hub.Publish(pipeline.Event{Type: "transcript", Text: "olá"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got pipeline.Event
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "transcript", got.Type)
	assert.Equal(t, "olá", got.Text)
}

func TestHubFanOut(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	a := dialHub(t, srv)
	defer a.Close()
	b := dialHub(t, srv)
	defer b.Close()

	require.Eventually(t, func() bool { return hub.observers() == 2 },
		time.Second, 10*time.Millisecond)

	hub.Publish(pipeline.Event{Type: "emotions", Codes: []int{1, 2, 0}})

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)

		var got pipeline.Event
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, []int{1, 2, 0}, got.Codes)
	}
}

func TestHubDropsClosedObservers(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.observers() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.observers() == 0 },
		time.Second, 10*time.Millisecond)

	// Publishing with no observers must not panic.
	hub.Publish(pipeline.Event{Type: "metrics"})
}
