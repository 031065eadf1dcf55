package websocket

import (
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	h := NewHub(logger)
	h.Start()
	t.Cleanup(h.Stop)
	return h
}

func newTestClient(h *Hub, buffer int) *Client {
	return &Client{
		hub:         h,
		send:        make(chan []byte, buffer),
		id:          "test-client",
		remoteAddr:  "127.0.0.1:0",
		connectedAt: time.Now(),
		logger:      h.logger,
	}
}

func receive(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case raw := <-c.send:
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("hub never reached %d clients, have %d", want, h.ClientCount())
}

func TestHub_GreetsRegisteredClient(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient(h, 4)

	h.Register(c)
	waitForClients(t, h, 1)

	msg := receive(t, c)
	assert.Equal(t, TypeConnection, msg["type"])
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "connected", data["status"])
	assert.Equal(t, "test-client", data["client_id"])
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	h := newTestHub(t)
	a := newTestClient(h, 4)
	b := newTestClient(h, 4)

	h.Register(a)
	h.Register(b)
	waitForClients(t, h, 2)

	// Drain greetings
	receive(t, a)
	receive(t, b)

	h.Broadcast(TypeBoardUpdate, map[string]interface{}{"version": 3, "scope": "all"})

	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		assert.Equal(t, TypeBoardUpdate, msg["type"])
		data := msg["data"].(map[string]interface{})
		assert.Equal(t, float64(3), data["version"])
		assert.Equal(t, "all", data["scope"])
		assert.NotEmpty(t, msg["timestamp"])
	}
}

func TestHub_EvictsClientWithFullBuffer(t *testing.T) {
	h := newTestHub(t)
	stuck := newTestClient(h, 1)

	h.Register(stuck)
	waitForClients(t, h, 1)
	// The greeting fills the 1-slot buffer; the next broadcast cannot be
	// queued and must evict the client

	h.Broadcast(TypeBoardUpdate, map[string]interface{}{"version": 1})
	waitForClients(t, h, 0)
}

func TestHub_StopIsIdempotent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	h := NewHub(logger)
	h.Start()

	h.Stop()
	h.Stop()
	assert.Equal(t, 0, h.ClientCount())
}
