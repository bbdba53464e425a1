package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event names carried on the wire. The set is closed: Decode rejects
// anything it does not know, so clients dispatch on the discriminant
// instead of shape-sniffing payloads.
const (
	EventMessageCreated  = "message:created"
	EventMessageEdited   = "message:edited"
	EventMessageDeleted  = "message:deleted"
	EventNotificationNew = "notification:new"
	EventTyping          = "typing"
)

// Room address helpers
const (
	chatRoomPrefix    = "chat:"
	userChannelPrefix = "user:"
)

func ChatRoom(chatID string) string {
	return chatRoomPrefix + chatID
}

func UserChannel(userID string) string {
	return userChannelPrefix + userID
}

// Event is one of the closed variants below.
type Event interface {
	EventName() string
}

// Message is the wire view of a chat message.
type Message struct {
	ID            string     `json:"id"`
	ChatID        string     `json:"chat_id"`
	SenderID      string     `json:"sender_id"`
	Kind          string     `json:"kind"`
	Content       string     `json:"content,omitempty"`
	AttachmentRef string     `json:"attachment_ref,omitempty"`
	ReplyToID     string     `json:"reply_to_id,omitempty"`
	ClientRef     string     `json:"client_ref,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	EditedAt      *time.Time `json:"edited_at,omitempty"`
}

// Notification is the wire view of a notification record.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message,omitempty"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageCreated struct {
	Message Message `json:"message"`
}

func (MessageCreated) EventName() string { return EventMessageCreated }

type MessageEdited struct {
	Message Message `json:"message"`
}

func (MessageEdited) EventName() string { return EventMessageEdited }

type MessageDeleted struct {
	MessageID string `json:"message_id"`
	ChatID    string `json:"chat_id"`
}

func (MessageDeleted) EventName() string { return EventMessageDeleted }

type NotificationNew struct {
	Notification Notification `json:"notification"`
}

func (NotificationNew) EventName() string { return EventNotificationNew }

// Typing is ephemeral: never persisted, receivers expire entries locally.
type Typing struct {
	ChatID   string `json:"chat_id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name,omitempty"`
	IsTyping bool   `json:"is_typing"`
}

func (Typing) EventName() string { return EventTyping }

// Envelope is the on-wire frame for both the websocket and the redis
// backbone.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Encode wraps an event into its envelope bytes.
func Encode(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: ev.EventName(), Payload: payload})
}

// Decode parses envelope bytes back into a typed event.
func Decode(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return DecodePayload(env.Event, env.Payload)
}

// DecodePayload parses a payload for a known event name.
func DecodePayload(name string, payload []byte) (Event, error) {
	switch name {
	case EventMessageCreated:
		var ev MessageCreated
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventMessageEdited:
		var ev MessageEdited
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventMessageDeleted:
		var ev MessageDeleted
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventNotificationNew:
		var ev NotificationNew
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventTyping:
		var ev Typing
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown event %q", name)
	}
}
