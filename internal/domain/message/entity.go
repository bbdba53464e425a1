package message

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Message kinds
const (
	KindText       = "TEXT"
	KindAttachment = "ATTACHMENT"
)

// Message represents the chat_messages table. Seq is a bigserial assigned
// by the database and breaks ordering ties between equal CreatedAt values.
type Message struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq           int64     `gorm:"autoIncrement;uniqueIndex"`
	ChatID        uuid.UUID `gorm:"type:uuid;not null;index"`
	SenderID      uuid.UUID `gorm:"type:uuid;not null"`
	Kind          string    `gorm:"not null"`
	Content       sql.NullString
	AttachmentRef sql.NullString
	ReplyToID     uuid.NullUUID `gorm:"type:uuid"`
	// ClientRef echoes the sender's temporary id back in the broadcast so
	// optimistic placeholders can be reconciled. Never used server-side.
	ClientRef sql.NullString
	CreatedAt time.Time `gorm:"index"`
	EditedAt  sql.NullTime
}

func (Message) TableName() string {
	return "chat_messages"
}
