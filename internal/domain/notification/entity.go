package notification

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Notification kinds
const (
	KindChat    = "chat"
	KindDueSoon = "due_soon"
	KindSystem  = "system"
)

// Notification represents the notifications table. Rows are never
// deduplicated at write time; the dispatcher decides at query time whether
// a reminder may be re-issued (see HasRecent).
type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind      string    `gorm:"not null"`
	Title     string    `gorm:"not null"`
	Message   string
	Link      sql.NullString
	Read      bool `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (Notification) TableName() string {
	return "notifications"
}
