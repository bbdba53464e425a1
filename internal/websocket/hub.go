package websocket

import (
	"context"
	"sync"
)

// roomRequest represents a room join/leave request
type roomRequest struct {
	client *Client
	room   string
	join   bool
}

// Hub manages WebSocket client connections and room membership. Every
// client is implicitly subscribed to its own user channel at registration;
// chat rooms are joined and left explicitly as the client opens and closes
// chat views.
type Hub struct {
	mu sync.RWMutex

	// clients maps connection ID to client (for cleanup)
	clients map[string]*Client

	// rooms maps room name to set of clients subscribed to it
	rooms map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	membership chan roomRequest
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		membership: make(chan roomRequest, 512),
	}
}

// Run starts the hub's event loop.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case req := <-h.membership:
			if req.join {
				h.joinRoom(req.client, req.room)
			} else {
				h.leaveRoom(req.client, req.room)
			}
		}
	}
}

// Register adds a new client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Join subscribes a client to a room.
func (h *Hub) Join(client *Client, room string) {
	h.membership <- roomRequest{client: client, room: room, join: true}
}

// Leave unsubscribes a client from a room.
func (h *Hub) Leave(client *Client, room string) {
	h.membership <- roomRequest{client: client, room: room, join: false}
}

// Broadcast sends a payload to all clients subscribed to a room.
func (h *Hub) Broadcast(room string, payload []byte) {
	h.mu.RLock()
	for c := range h.rooms[room] {
		c.SendMessage(payload)
	}
	h.mu.RUnlock()
}

// BroadcastToUser sends a payload to all connections of a user.
func (h *Hub) BroadcastToUser(userID string, payload []byte) {
	h.mu.RLock()
	for _, client := range h.clients {
		if client.UserID == userID {
			client.SendMessage(payload)
		}
	}
	h.mu.RUnlock()
}

// UserInRoom reports whether any of a user's connections has joined a room.
// A member in the room is watching the chat live and does not need a
// notification for a new message there.
func (h *Hub) UserInRoom(userID, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of subscribers in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range client.rooms {
		if subscribers, ok := h.rooms[room]; ok {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.rooms, room)
			}
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) joinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][client] = struct{}{}
	client.joinRoom(room)
}

func (h *Hub) leaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subscribers, ok := h.rooms[room]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.rooms, room)
		}
	}
	client.leaveRoom(room)
}
