package httpdto

import (
	"time"

	"taskboard-chat/internal/domain/notification"
)

type NotificationResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message,omitempty"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func NewNotificationResponse(n notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID.String(),
		Kind:      n.Kind,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link.String,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

type PresignUploadRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

type PresignUploadResponse struct {
	Key       string            `json:"key"`
	UploadURL string            `json:"upload_url"`
	Headers   map[string]string `json:"headers,omitempty"`
	FileURL   string            `json:"file_url,omitempty"`
}
