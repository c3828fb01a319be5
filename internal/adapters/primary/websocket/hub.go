package websocket

import (
	"log/slog"
	"sync"

	"github.com/lorrc/caller-panel/internal/core/domain"
	"github.com/lorrc/caller-panel/internal/core/ports"
)

// Hub maintains the set of active Clients and routes session events to them.
type Hub struct {
	// clients is the set of every registered connection
	clients map[*Client]bool

	// Rooms maps session IDs to subscribed clients.
	// An agent can have the panel open in more than one tab.
	rooms map[string]map[*Client]bool

	// Broadcast channel for events
	broadcast chan domain.Event

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	done     chan struct{}
	stopOnce sync.Once

	// mu protects the clients and rooms maps
	mu sync.RWMutex

	logger *slog.Logger
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan domain.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Broadcast queues an event for the session's room.
// This method implements the ports.EventBroadcaster interface and never blocks.
func (h *Hub) Broadcast(event domain.Event) error {
	select {
	case h.broadcast <- event:
		return nil
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event_type", event.Type,
			"session_id", event.SessionID,
		)
		return nil
	}
}

// Run starts the hub's event loop. This MUST be run as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop ends the event loop and closes every client's send channel.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// registerClient adds a client to the hub and its session room
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.joinLocked(client, client.SessionID)

	h.logger.Info("client registered",
		"session_id", client.SessionID,
		"session_connections", len(h.rooms[client.SessionID]),
	)
}

// unregisterClient removes a client from the hub and all rooms
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	for _, sessionID := range client.GetSubscriptions() {
		h.leaveLocked(client, sessionID)
	}

	client.CloseSend()

	h.logger.Info("client unregistered",
		"session_id", client.SessionID,
	)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.CloseSend()
	}
	h.clients = make(map[*Client]bool)
	h.rooms = make(map[string]map[*Client]bool)
}

// broadcastEvent sends an event to all clients in the event's session room
func (h *Hub) broadcastEvent(event domain.Event) {
	h.mu.RLock()
	room, ok := h.rooms[event.SessionID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	// Copy the client list to avoid holding the lock while sending
	clients := make([]*Client, 0, len(room))
	for client := range room {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"session_id", event.SessionID,
		"client_count", len(clients),
	)

	for _, client := range clients {
		select {
		case client.Send <- event:
		default:
			// Slow consumer. Drop it here; Run is the caller, so the
			// Unregister channel would deadlock.
			h.logger.Warn("client send buffer full, unregistering",
				"session_id", client.SessionID,
			)
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) joinLocked(client *Client, sessionID string) {
	if h.rooms[sessionID] == nil {
		h.rooms[sessionID] = make(map[*Client]bool)
	}
	h.rooms[sessionID][client] = true
	client.AddSubscription(sessionID)
}

func (h *Hub) leaveLocked(client *Client, sessionID string) {
	if room, ok := h.rooms[sessionID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, sessionID)
		}
	}
	client.RemoveSubscription(sessionID)
}

// subscribeClientToSession adds a client to another session's room
func (h *Hub) subscribeClientToSession(client *Client, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	h.joinLocked(client, sessionID)

	h.logger.Debug("client subscribed to session",
		"client_session_id", client.SessionID,
		"session_id", sessionID,
	)
}

// unsubscribeClientFromSession removes a client from a session's room
func (h *Hub) unsubscribeClientFromSession(client *Client, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(client, sessionID)

	h.logger.Debug("client unsubscribed from session",
		"client_session_id", client.SessionID,
		"session_id", sessionID,
	)
}

// GetClientCount returns the total number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetRoomCount returns the number of active rooms
func (h *Hub) GetRoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// GetClientsInRoom returns the number of clients subscribed to a session
func (h *Hub) GetClientsInRoom(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// IsSessionConnected checks if a session has any active connections
func (h *Hub) IsSessionConnected(sessionID string) bool {
	return h.GetClientsInRoom(sessionID) > 0
}
