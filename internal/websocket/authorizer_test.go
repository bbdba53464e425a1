package websocket

import (
	"context"
	"testing"

	"taskboard-chat/internal/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMembership struct {
	member map[uuid.UUID]map[uuid.UUID]bool
}

func (s *stubMembership) IsMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	return s.member[chatID][userID], nil
}

func TestCanJoinOwnUserChannel(t *testing.T) {
	a := NewRoomAuthorizer(&stubMembership{})
	userID := uuid.New().String()

	ok, err := a.CanJoin(context.Background(), userID, events.UserChannel(userID))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.CanJoin(context.Background(), userID, events.UserChannel(uuid.New().String()))
	require.NoError(t, err)
	assert.False(t, ok, "a user may not subscribe to someone else's channel")
}

func TestCanJoinChatRoomRequiresMembership(t *testing.T) {
	chatID := uuid.New()
	member := uuid.New()
	stranger := uuid.New()
	a := NewRoomAuthorizer(&stubMembership{
		member: map[uuid.UUID]map[uuid.UUID]bool{chatID: {member: true}},
	})

	ok, err := a.CanJoin(context.Background(), member.String(), events.ChatRoom(chatID.String()))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.CanJoin(context.Background(), stranger.String(), events.ChatRoom(chatID.String()))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanJoinRejectsMalformedRooms(t *testing.T) {
	a := NewRoomAuthorizer(&stubMembership{})
	userID := uuid.New().String()

	for _, room := range []string{"", "chat:not-a-uuid", "admin:everything", "user:"} {
		ok, err := a.CanJoin(context.Background(), userID, room)
		require.NoError(t, err)
		assert.False(t, ok, "room %q must be denied", room)
	}
}
