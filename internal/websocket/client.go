package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client represents a WebSocket client connection. A user may hold several
// clients (one per open browser tab or device).
type Client struct {
	ID     string          // Unique connection ID
	UserID string          // Authenticated user ID
	Conn   *websocket.Conn // WebSocket connection
	Send   chan []byte     // Outbound message channel
	rooms  map[string]bool // Joined rooms
	mu     sync.RWMutex    // Protects rooms map and conn writes
}

func NewClient(conn *websocket.Conn, userID string) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		rooms:  make(map[string]bool),
	}
}

// joinRoom records a room membership (called by the hub only).
func (c *Client) joinRoom(room string) {
	c.mu.Lock()
	c.rooms[room] = true
	c.mu.Unlock()
}

// leaveRoom drops a room membership (called by the hub only).
func (c *Client) leaveRoom(room string) {
	c.mu.Lock()
	delete(c.rooms, room)
	c.mu.Unlock()
}

// InRoom reports whether the client has joined a room.
func (c *Client) InRoom(room string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms[room]
}

// Rooms returns a copy of all joined rooms.
func (c *Client) Rooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rooms := make([]string, 0, len(c.rooms))
	for r := range c.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// WriteLoop drains the Send channel onto the connection and keeps it alive
// with pings.
func (c *Client) WriteLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.close()
			return
		case msg, ok := <-c.Send:
			if !ok {
				c.close()
				return
			}
			c.mu.Lock()
			_ = c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			_ = c.Conn.WriteMessage(websocket.TextMessage, msg)
			c.mu.Unlock()
		case <-ticker.C:
			c.mu.Lock()
			_ = c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			_ = c.Conn.WriteMessage(websocket.PingMessage, []byte("ping"))
			c.mu.Unlock()
		}
	}
}

func (c *Client) close() {
	c.mu.Lock()
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
	c.mu.Unlock()
}

// SendMessage queues a message for delivery (non-blocking). A full queue
// drops the message; the client reconciles over REST.
func (c *Client) SendMessage(msg []byte) {
	select {
	case c.Send <- msg:
	default:
	}
}
