// Package realtime streams as-you-type session changes to subscribers over
// Server-Sent Events.
package realtime

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// eventBufferSize is the per-client channel buffer. Events are dropped when full.
const eventBufferSize = 256

// Session actions.
const (
	ActionInput  = "input"
	ActionClear  = "clear"
	ActionDelete = "delete"
)

// Event is one change to an as-you-type session.
type Event struct {
	Action   string `json:"action"`
	Session  string `json:"session"`
	Output   string `json:"output"`
	Position int    `json:"position"`
}

// Hub fans session events out to the clients watching each session.
// It is safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	nextID  atomic.Uint64
	logger  *slog.Logger
}

// Client is one SSE subscriber to a single session.
type Client struct {
	ID      string
	session string
	events  chan *Event
}

// Events returns a read-only channel of events for the client's session.
// It is closed when the client unsubscribes or the session ends.
func (c *Client) Events() <-chan *Event {
	return c.events
}

// Session returns the id of the session the client watches.
func (c *Client) Session() string {
	return c.session
}

// NewHub creates a new session event hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Subscribe registers a new client watching session.
func (h *Hub) Subscribe(session string) *Client {
	id := fmt.Sprintf("c%d", h.nextID.Add(1))
	client := &Client{
		ID:      id,
		session: session,
		events:  make(chan *Event, eventBufferSize),
	}

	h.mu.Lock()
	h.clients[id] = client
	h.mu.Unlock()

	h.logger.Debug("client subscribed", "id", id, "session", session)
	return client
}

// Unsubscribe removes a client and closes its event channel.
func (h *Hub) Unsubscribe(clientID string) {
	h.mu.Lock()
	client, ok := h.clients[clientID]
	if ok {
		delete(h.clients, clientID)
		close(client.events)
	}
	h.mu.Unlock()

	if ok {
		h.logger.Debug("client unsubscribed", "id", clientID)
	}
}

// Publish sends an event to every client watching the event's session.
// Sends never block: events are dropped for clients with full buffers.
func (h *Hub) Publish(event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.session != event.Session {
			continue
		}
		select {
		case client.events <- event:
		default:
			h.logger.Warn("client buffer full, dropping event", "clientID", client.ID)
		}
	}
}

// CloseSession disconnects every client watching session. Events already
// buffered are still delivered before the channel reports closed.
func (h *Hub) CloseSession(session string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		if client.session == session {
			close(client.events)
			delete(h.clients, id)
		}
	}
}

// Close disconnects all clients and clears the hub.
// Safe to call multiple times.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		close(client.events)
		delete(h.clients, id)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
