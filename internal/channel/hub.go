package channel

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// safeConn wraps a WebSocket connection with a mutex for thread-safe writes
type safeConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *safeConn) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *safeConn) Close() error {
	return s.conn.Close()
}

// Hub broadcasts channel events to every connected rendering client
// over WebSocket. A slow or dead client is dropped, never waited on.
type Hub struct {
	mu     sync.Mutex
	conns  map[int]*safeConn
	nextID int
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{conns: make(map[int]*safeConn)}
}

// Register adds a client connection and returns an unregister func.
func (h *Hub) Register(conn *websocket.Conn) func() {
	sc := &safeConn{conn: conn}
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.conns[id] = sc
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.conns[id]; ok {
			delete(h.conns, id)
			c.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Publish fans an event out to all clients. Write failures drop the
// client; they never propagate to the emitting adapter.
func (h *Hub) Publish(evt Event) {
	h.mu.Lock()
	conns := make(map[int]*safeConn, len(h.conns))
	for id, c := range h.conns {
		conns[id] = c
	}
	h.mu.Unlock()

	for id, c := range conns {
		if err := c.WriteJSON(evt); err != nil {
			log.Printf("[Hub] dropping client %d: %v", id, err)
			h.mu.Lock()
			if cur, ok := h.conns[id]; ok && cur == c {
				delete(h.conns, id)
			}
			h.mu.Unlock()
			c.Close()
		}
	}
}
