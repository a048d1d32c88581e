package http

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
	"onsalenow.io/analytics/internal/application"
)

// Client represents a connected admin SSE client.
type Client struct {
	userID string
	send   chan []byte
}

// Hub fans pass outcomes out to every connected admin.
// Single-instance model: all broadcast is in-process.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewHub creates a new SSE Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Register adds a new SSE client.
func (h *Hub) Register(userID string, send chan []byte) *Client {
	c := &Client{userID: userID, send: send}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	log.Debug().Str("user", userID).Msg("SSE client connected")
	return c
}

// Unregister removes an SSE client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()

	log.Debug().Str("user", c.userID).Msg("SSE client disconnected")
}

// Publish sends a pass outcome to every connected admin.
// This satisfies the application.StatusHub interface.
func (h *Hub) Publish(result *application.PassResult) {
	msg := buildSSEMessage("pass", result)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Client is slow/disconnected, skip
			log.Warn().Str("user", c.userID).Msg("SSE client send buffer full, skipping")
		}
	}
}

// ConnectedCount returns the total number of connected SSE clients.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// buildSSEMessage formats v as an SSE frame of the given event type.
func buildSSEMessage(event string, v any) []byte {
	b, _ := json.Marshal(v)
	return []byte("event: " + event + "\ndata: " + string(b) + "\n\n")
}
