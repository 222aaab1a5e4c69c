package http

import (
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
)

// Client represents a connected SSE client.
type Client struct {
	userID string
	send   chan []byte
}

// Hub fans unread-count changes out to every connected SSE client. The count
// is process-wide, so every client receives every update.
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
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}

	log.Debug().Str("user", userID).Msg("SSE client connected")
	return c
}

// Unregister removes an SSE client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)

	log.Debug().Str("user", c.userID).Msg("SSE client disconnected")
}

// BroadcastCount sends the new count to every client. It matches the
// subscriber signature of Service.SubscribeToAggregate.
func (h *Hub) BroadcastCount(count int64) {
	msg := buildCountMessage(count)

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

// buildCountMessage formats the aggregate as an SSE frame.
func buildCountMessage(count int64) []byte {
	return []byte("event: unread-count\ndata: {\"count\":" + strconv.FormatInt(count, 10) + "}\n\n")
}
