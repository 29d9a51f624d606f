// Package ws pushes sync events to connected browser clients. Delivery is
// fire and forget: a client whose buffer is full is dropped, nothing is
// queued or retried.
package ws

import (
	"sync"

	"dota-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info().Str("username", c.username).Str("role", c.role).Int("total_clients", n).Msg("websocket client connected")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info().Str("username", c.username).Int("total_clients", n).Msg("websocket client disconnected")
}

// Broadcast sends the event to every connected client.
func (h *Hub) Broadcast(e domain.Event) {
	h.send(e, "")
}

// BroadcastRole sends the event only to clients whose credential carried the
// given role at connect time.
func (h *Hub) BroadcastRole(role string, e domain.Event) {
	h.send(e, role)
}

func (h *Hub) send(e domain.Event, role string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		if role != "" && c.role != role {
			continue
		}
		select {
		case c.send <- e:
		default:
			// Slow consumer: drop the connection rather than block the sync loop.
			delete(h.clients, c)
			close(c.send)
			h.logger.Warn().Str("username", c.username).Msg("websocket client too slow, dropping")
		}
	}
}

// ClientCount reports currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
