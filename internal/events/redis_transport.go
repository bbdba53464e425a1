package events

import (
	"context"

	"taskboard-chat/pkg/logger"
)

// Publisher is the outbound half of the pub/sub backbone.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisTransport publishes events to the redis backbone instead of the
// local hub. Every API instance runs a bridge that subscribes to chat:*
// and user:* and feeds its own hub, so room membership is shared across
// processes. Drop-in replacement for the in-process transport.
type RedisTransport struct {
	publisher Publisher
	log       *logger.Logger
}

func NewRedisTransport(publisher Publisher, log *logger.Logger) *RedisTransport {
	return &RedisTransport{publisher: publisher, log: log}
}

func (t *RedisTransport) Broadcast(ctx context.Context, room string, ev Event) {
	t.publish(ctx, room, ev)
}

func (t *RedisTransport) EmitToUser(ctx context.Context, userID string, ev Event) {
	t.publish(ctx, UserChannel(userID), ev)
}

func (t *RedisTransport) publish(ctx context.Context, channel string, ev Event) {
	data, err := Encode(ev)
	if err != nil {
		if t.log != nil {
			t.log.Errorf("encode event %s: %v", ev.EventName(), err)
		}
		return
	}
	// The REST write is the source of truth; a lost broadcast is recovered
	// by the client's next fetch.
	if err := t.publisher.Publish(ctx, channel, data); err != nil && t.log != nil {
		t.log.Errorf("publish %s to %s: %v", ev.EventName(), channel, err)
	}
}
