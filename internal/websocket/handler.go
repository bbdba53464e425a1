package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"taskboard-chat/internal/events"
	"taskboard-chat/internal/transport/httpdto"
	"taskboard-chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// TokenParser validates a connect-time token and returns the user id.
type TokenParser interface {
	ParseUserID(token string) (string, error)
}

// inboundFrame is the small client-to-server protocol: join/leave a chat
// room, or signal typing. Everything else flows over REST.
type inboundFrame struct {
	Type     string `json:"type"` // "join" | "leave" | "typing"
	ChatID   string `json:"chat_id"`
	UserName string `json:"user_name,omitempty"`
	IsTyping bool   `json:"is_typing,omitempty"`
}

type Handler struct {
	tokens     TokenParser
	hub        *Hub
	authorizer *RoomAuthorizer
	transport  events.Transport
	log        *logger.Logger
}

func NewHandler(tokens TokenParser, hub *Hub, authorizer *RoomAuthorizer, transport events.Transport, log *logger.Logger) *Handler {
	return &Handler{tokens: tokens, hub: hub, authorizer: authorizer, transport: transport, log: log}
}

// Connect authenticates once, upgrades, and serves the connection until the
// peer goes away. The connection is implicitly addressable via the user's
// channel from the moment it registers.
func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	userID, err := h.tokens.ParseUserID(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, userID)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	go client.WriteLoop(ctx)

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		h.handleFrame(c.Request.Context(), client, data)
	}

	h.hub.Unregister(client)
}

func (h *Handler) handleFrame(ctx context.Context, client *Client, data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return
	}

	switch frame.Type {
	case "join":
		room := events.ChatRoom(frame.ChatID)
		ok, err := h.authorizer.CanJoin(ctx, client.UserID, room)
		if err != nil {
			if h.log != nil {
				h.log.Errorf("authorize join %s for user %s: %v", room, client.UserID, err)
			}
			return
		}
		if ok {
			h.hub.Join(client, room)
		}
	case "leave":
		h.hub.Leave(client, events.ChatRoom(frame.ChatID))
	case "typing":
		room := events.ChatRoom(frame.ChatID)
		// Typing is only relayed for rooms the sender actually joined, so a
		// membership lookup is not needed here.
		if !client.InRoom(room) {
			return
		}
		h.transport.Broadcast(ctx, room, events.Typing{
			ChatID:   frame.ChatID,
			UserID:   client.UserID,
			UserName: frame.UserName,
			IsTyping: frame.IsTyping,
		})
	}
}
