package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func registerClient(t *testing.T, hub *Hub, userID string) *Client {
	t.Helper()
	client := NewClient(nil, userID)
	hub.Register(client)
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		_, ok := hub.clients[client.ID]
		return ok
	}, time.Second, time.Millisecond, "client never registered")
	return client
}

func joinRoom(t *testing.T, hub *Hub, client *Client, room string) {
	t.Helper()
	hub.Join(client, room)
	require.Eventually(t, func() bool {
		return hub.UserInRoom(client.UserID, room)
	}, time.Second, time.Millisecond, "client never joined room")
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-c.Send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestHubBroadcastReachesRoomMembersOnly(t *testing.T) {
	hub := startHub(t)
	inRoom := registerClient(t, hub, "alice")
	outside := registerClient(t, hub, "bob")
	joinRoom(t, hub, inRoom, "chat:1")

	hub.Broadcast("chat:1", []byte("hello"))

	require.Len(t, drain(inRoom), 1)
	assert.Empty(t, drain(outside))
}

func TestHubBroadcastToUserHitsAllConnections(t *testing.T) {
	hub := startHub(t)
	tab1 := registerClient(t, hub, "alice")
	tab2 := registerClient(t, hub, "alice")
	other := registerClient(t, hub, "bob")

	hub.BroadcastToUser("alice", []byte("ping"))

	assert.Len(t, drain(tab1), 1)
	assert.Len(t, drain(tab2), 1)
	assert.Empty(t, drain(other))
}

func TestHubUserInRoom(t *testing.T) {
	hub := startHub(t)
	client := registerClient(t, hub, "alice")

	assert.False(t, hub.UserInRoom("alice", "chat:1"))
	joinRoom(t, hub, client, "chat:1")
	assert.True(t, hub.UserInRoom("alice", "chat:1"))
	assert.False(t, hub.UserInRoom("bob", "chat:1"))

	hub.Leave(client, "chat:1")
	require.Eventually(t, func() bool {
		return !hub.UserInRoom("alice", "chat:1")
	}, time.Second, time.Millisecond)
	assert.False(t, client.InRoom("chat:1"))
}

func TestHubUnregisterCleansUpRooms(t *testing.T) {
	hub := startHub(t)
	client := registerClient(t, hub, "alice")
	joinRoom(t, hub, client, "chat:1")

	hub.Unregister(client)
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, time.Millisecond)

	assert.Equal(t, 0, hub.RoomSize("chat:1"))
	// The send channel is closed so the write loop exits.
	_, open := <-client.Send
	assert.False(t, open)
}

func TestHubFullSendQueueDropsInsteadOfBlocking(t *testing.T) {
	hub := startHub(t)
	client := registerClient(t, hub, "alice")
	joinRoom(t, hub, client, "chat:1")

	for i := 0; i < cap(client.Send)+10; i++ {
		hub.Broadcast("chat:1", []byte("flood"))
	}

	assert.Len(t, drain(client), cap(client.Send))
}
