package chat

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Chat kinds
const (
	KindDirect  = "DIRECT"
	KindProject = "PROJECT"
)

// Chat represents the chats table. Direct chats are keyed by the sorted
// pair of member ids (PairKey), project chats 1:1 by ProjectRef; both are
// backed by partial unique indexes so a concurrent create races into a
// duplicate-key error instead of a second row.
type Chat struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind       string    `gorm:"not null"`
	Name       sql.NullString
	ProjectRef uuid.NullUUID `gorm:"type:uuid"`
	PairKey    sql.NullString
	CreatedBy  uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Members []Member `gorm:"foreignKey:ChatID"`
}

// Member represents the chat_members table. LastReadAt is the only read
// state kept per member; unread counts are derived from it.
type Member struct {
	ChatID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Role       string    `gorm:"not null"`
	JoinedAt   time.Time
	LastReadAt sql.NullTime
}

// Member roles
const (
	RoleOwner  = "OWNER"
	RoleMember = "MEMBER"
)

func (Chat) TableName() string {
	return "chats"
}

func (Member) TableName() string {
	return "chat_members"
}

// DirectPairKey builds the canonical unordered key for a direct chat.
func DirectPairKey(a, b uuid.UUID) string {
	if a.String() > b.String() {
		a, b = b, a
	}
	return fmt.Sprintf("%s:%s", a, b)
}
