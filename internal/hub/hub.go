// Package hub is the WebSocket transport layer: it tracks connected clients
// and moves bytes. Room membership is deliberately not tracked here; the
// registry owns subscriber sets and the service decides who receives what.
package hub

import (
	"sync"

	pkglog "github.com/nitin16112004/live-shopping-application/pkg/log"
)

// Hub tracks all connected WebSocket clients by connection ID.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	pkglog.L().Debug().Str(pkglog.FieldClientID, client.ID).Msg("client registered")
}

// Unregister removes a client and closes its outbound channel. Safe to call
// more than once for the same client.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client.ID]
	if ok {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	h.mu.Unlock()

	if ok {
		pkglog.L().Debug().Str(pkglog.FieldClientID, client.ID).Msg("client unregistered")
	}
}

// Get returns the client with the given connection ID, or nil.
func (h *Hub) Get(clientID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[clientID]
}

// TrySend enqueues data on a client's outbound buffer. It returns false when
// the client is gone or its buffer is full; it never blocks. A full buffer
// means the connection has stalled: the caller is expected to drop it so one
// slow reader cannot hold up a room.
func (h *Hub) TrySend(clientID string, data []byte) bool {
	// The read lock is held across the send so Unregister cannot close the
	// channel between the lookup and the enqueue. The send never blocks, so
	// the lock is released immediately either way.
	h.mu.RLock()
	defer h.mu.RUnlock()

	client := h.clients[clientID]
	if client == nil {
		return false
	}

	select {
	case client.Send <- data:
		return true
	default:
		return false
	}
}

// Drop forcibly disconnects a client. The connection teardown path (read
// pump exit) then runs the usual disconnect cleanup.
func (h *Hub) Drop(client *Client) {
	pkglog.L().Warn().Str(pkglog.FieldClientID, client.ID).Msg("dropping stalled client")
	h.Unregister(client)
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
