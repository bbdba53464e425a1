package websocket

import (
	"context"
	"strings"
)

// Subscriber is the inbound half of the pub/sub backbone.
type Subscriber interface {
	Subscribe(ctx context.Context, patterns []string, handler func(channel string, payload []byte)) error
}

// Bridge feeds backbone messages into the local hub. Channel names double
// as room names: chat:<id> payloads go to the room, user:<id> payloads to
// every connection of that user.
type Bridge struct {
	subscriber Subscriber
	hub        *Hub
}

func NewBridge(subscriber Subscriber, hub *Hub) *Bridge {
	return &Bridge{subscriber: subscriber, hub: hub}
}

func (b *Bridge) Run(ctx context.Context) error {
	return b.subscriber.Subscribe(ctx, []string{"chat:*", "user:*"}, func(channel string, payload []byte) {
		if userID, ok := strings.CutPrefix(channel, "user:"); ok {
			b.hub.BroadcastToUser(userID, payload)
			return
		}
		b.hub.Broadcast(channel, payload)
	})
}
