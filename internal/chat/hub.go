package chat

import (
	"sync"
)

// Hub maintains the set of active chat clients and routes events to them.
type Hub struct {
	// Registered clients by user ID
	clients map[int64]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Broadcast channel for chat events
	broadcast chan *Event

	mu sync.RWMutex
}

// Event is a server-to-client chat frame.
type Event struct {
	Type    string       `json:"type"`
	UserID  int64        `json:"-"` // Not sent to client, used for routing
	Message *MessageInfo `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Event),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.userID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.userID)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			// Delivery can evict slow clients, which mutates the map, so
			// this holds the write lock for the whole fan-out.
			h.mu.Lock()
			if clients, ok := h.clients[event.UserID]; ok {
				for client := range clients {
					select {
					case client.send <- event:
					default:
						// Client's buffer is full, close the connection
						close(client.send)
						delete(clients, client)
					}
				}
				if len(clients) == 0 {
					delete(h.clients, event.UserID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends an event to every connection the user has open.
func (h *Hub) Broadcast(event *Event) {
	h.broadcast <- event
}

// ClientCount returns the number of connected clients for a user.
func (h *Hub) ClientCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.clients[userID]; ok {
		return len(clients)
	}
	return 0
}

// TotalClients returns the total number of connected clients.
func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}
