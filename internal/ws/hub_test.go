package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dota-tracker/internal/domain"
)

func newHubClient(h *Hub, username, role string, buffer int) *Client {
	c := &Client{
		hub:      h,
		send:     make(chan domain.Event, buffer),
		username: username,
		role:     role,
		logger:   zerolog.Nop(),
	}
	h.register(c)
	return c
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a := newHubClient(hub, "alice", "admin", 4)
	b := newHubClient(hub, "bob", "player", 4)
	require.Equal(t, 2, hub.ClientCount())

	hub.Broadcast(domain.Event{Type: domain.EventPlayerUpdate})

	assert.Len(t, a.send, 1)
	assert.Len(t, b.send, 1)
}

func TestBroadcastRoleFiltersByRole(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	admin := newHubClient(hub, "alice", "admin", 4)
	player := newHubClient(hub, "bob", "player", 4)

	hub.BroadcastRole("admin", domain.Event{Type: domain.EventSyncProgress})

	assert.Len(t, admin.send, 1)
	assert.Empty(t, player.send)
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	slow := newHubClient(hub, "slow", "player", 0)
	fast := newHubClient(hub, "fast", "player", 4)

	hub.Broadcast(domain.Event{Type: domain.EventPlayerUpdate})

	assert.Equal(t, 1, hub.ClientCount())
	assert.Len(t, fast.send, 1)

	// The dropped client's channel is closed so its write pump exits.
	_, open := <-slow.send
	assert.False(t, open)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	c := newHubClient(hub, "alice", "admin", 4)

	hub.unregister(c)
	hub.unregister(c)
	assert.Zero(t, hub.ClientCount())
}

func TestClientReceivesEventsOverWire(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		NewClient(hub, conn, "alice", "admin", zerolog.Nop()).Start()
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 5*time.Millisecond)

	hub.Broadcast(domain.Event{
		Type: domain.EventSyncComplete,
		Data: map[string]any{"processed": 5},
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got domain.Event
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, domain.EventSyncComplete, got.Type)

	_ = conn.Close()
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 5*time.Millisecond)
}
