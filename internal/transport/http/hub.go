package http

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Hub fans session events out to every connected websocket. It implements
// game.Gateway; delivery is fire-and-forget and a slow client drops events
// rather than stalling the session.
type Hub struct {
	log zerolog.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	conn *websocket.Conn
	send chan envelope
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[string]*client),
	}
}

func (h *Hub) register(connID string, conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan envelope, 32)}
	h.mu.Lock()
	h.clients[connID] = c
	h.mu.Unlock()
	go c.writeLoop(h.log, connID)
	return c
}

// unregister removes the client and closes its send channel. The channel is
// only ever written under the read lock while the client is still in the
// map, so closing under the write lock cannot race a send.
func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	if c, ok := h.clients[connID]; ok {
		delete(h.clients, connID)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) SendToAll(event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID, c := range h.clients {
		c.enqueue(h.log, connID, envelope{Type: event, Payload: payload})
	}
}

func (h *Hub) SendToOne(connID string, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[connID]; ok {
		c.enqueue(h.log, connID, envelope{Type: event, Payload: payload})
	}
}

func (c *client) enqueue(log zerolog.Logger, connID string, e envelope) {
	select {
	case c.send <- e:
	default:
		log.Warn().Str("conn", connID).Str("event", e.Type).Msg("send buffer full, dropping event")
	}
}

func (c *client) writeLoop(log zerolog.Logger, connID string) {
	for e := range c.send {
		if err := c.conn.WriteJSON(e); err != nil {
			log.Debug().Str("conn", connID).Err(err).Msg("websocket write failed")
			_ = c.conn.Close()
			for range c.send {
				// drain until unregister closes the channel
			}
			return
		}
	}
	_ = c.conn.Close()
}
