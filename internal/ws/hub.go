package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub maintains the set of active client sessions keyed by user id.
type Hub struct {
	clients map[string]*Client

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// One live session per user: a new connection replaces the old one.
	if existing, ok := h.clients[client.ID]; ok {
		existing.closeSend()
	}
	h.clients[client.ID] = client

	log.Printf("Client connected: %s", client.ID)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[client.ID]; ok && current == client {
		delete(h.clients, client.ID)
		client.closeSend()
		log.Printf("Client disconnected: %s", client.ID)
	}
}

// BroadcastToUser sends an event to a specific user's session, if any.
func (h *Hub) BroadcastToUser(userID string, env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[userID]
	if !ok {
		return
	}

	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("Failed to marshal event: %v", err)
		return
	}

	client.trySend(data)
}

// IsUserOnline checks if a user currently has a live session.
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.clients[userID]
	return ok
}

// OnlineCount returns the number of currently connected clients.
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
