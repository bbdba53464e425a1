package websocket

import (
	"context"

	"taskboard-chat/internal/events"
	"taskboard-chat/pkg/logger"
)

// LocalTransport delivers events through the in-process hub. Single
// instance deployments use it directly; multi instance deployments swap in
// the redis transport and run a Bridge per process instead.
type LocalTransport struct {
	hub *Hub
	log *logger.Logger
}

func NewLocalTransport(hub *Hub, log *logger.Logger) *LocalTransport {
	return &LocalTransport{hub: hub, log: log}
}

func (t *LocalTransport) Broadcast(_ context.Context, room string, ev events.Event) {
	data, err := events.Encode(ev)
	if err != nil {
		if t.log != nil {
			t.log.Errorf("encode event %s: %v", ev.EventName(), err)
		}
		return
	}
	t.hub.Broadcast(room, data)
}

func (t *LocalTransport) EmitToUser(_ context.Context, userID string, ev events.Event) {
	data, err := events.Encode(ev)
	if err != nil {
		if t.log != nil {
			t.log.Errorf("encode event %s: %v", ev.EventName(), err)
		}
		return
	}
	t.hub.BroadcastToUser(userID, data)
}

func (t *LocalTransport) UserInRoom(userID, room string) bool {
	return t.hub.UserInRoom(userID, room)
}
