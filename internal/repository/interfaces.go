package repository

import (
	"context"
	"time"

	"taskboard-chat/internal/domain/chat"
	"taskboard-chat/internal/domain/message"
	"taskboard-chat/internal/domain/notification"

	"github.com/google/uuid"
)

type ChatRepository interface {
	// Create persists a chat together with its members in one transaction.
	Create(ctx context.Context, c *chat.Chat, members []chat.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (chat.Chat, error)
	GetDirectByPairKey(ctx context.Context, pairKey string) (chat.Chat, error)
	GetByProjectRef(ctx context.Context, projectID uuid.UUID) (chat.Chat, error)
	// GetUserChats returns every chat the user belongs to, members preloaded,
	// ordered by updated_at descending.
	GetUserChats(ctx context.Context, userID uuid.UUID) ([]chat.Chat, error)
	IsMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error)
	GetMember(ctx context.Context, chatID, userID uuid.UUID) (chat.Member, error)
	// Touch bumps the chat's updated_at so it sorts to the top of lists.
	Touch(ctx context.Context, chatID uuid.UUID, at time.Time) error
	// MarkRead raises the member's last_read_at watermark. The update is
	// monotonic: an older timestamp never overwrites a newer one.
	MarkRead(ctx context.Context, chatID, userID uuid.UUID, at time.Time) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *message.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (message.Message, error)
	// GetPage returns up to limit messages older than before (all newest
	// first when before is nil), ordered created_at desc with seq as the
	// tie-break.
	GetPage(ctx context.Context, chatID uuid.UUID, before *time.Time, limit int) ([]message.Message, error)
	Update(ctx context.Context, m message.Message) error
	HardDelete(ctx context.Context, id uuid.UUID) error
	// CountUnread counts messages from other senders newer than the
	// member's watermark (a null watermark counts everything).
	CountUnread(ctx context.Context, chatID, userID uuid.UUID, lastReadAt *time.Time) (int64, error)
	GetLatest(ctx context.Context, chatID uuid.UUID) (message.Message, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *notification.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]notification.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	// HasRecent reports whether a notification of this kind with the same
	// link was already issued to the user at or after since. This is the
	// query-time dedup contract for scheduled reminders.
	HasRecent(ctx context.Context, userID uuid.UUID, kind, link string, since time.Time) (bool, error)
}
