package websocket

import (
	"context"
	"strings"

	"taskboard-chat/internal/events"

	"github.com/google/uuid"
)

// MembershipChecker answers whether a user belongs to a chat.
type MembershipChecker interface {
	IsMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error)
}

// RoomAuthorizer decides whether a connection may join a room.
type RoomAuthorizer struct {
	members MembershipChecker
}

func NewRoomAuthorizer(members MembershipChecker) *RoomAuthorizer {
	return &RoomAuthorizer{members: members}
}

// CanJoin checks room access: a user's own channel is always allowed, chat
// rooms require membership, everything else is denied.
func (a *RoomAuthorizer) CanJoin(ctx context.Context, userID string, room string) (bool, error) {
	if room == events.UserChannel(userID) {
		return true, nil
	}

	if chatIDStr, ok := strings.CutPrefix(room, "chat:"); ok {
		chatID, err := uuid.Parse(chatIDStr)
		if err != nil {
			return false, nil
		}
		userUUID, err := uuid.Parse(userID)
		if err != nil {
			return false, nil
		}
		return a.members.IsMember(ctx, chatID, userUUID)
	}

	return false, nil
}
