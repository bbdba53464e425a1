package httpdto

import "time"

type SendMessageRequest struct {
	Content       string `json:"content"`
	AttachmentRef string `json:"attachment_ref,omitempty"`
	ReplyToID     string `json:"reply_to_id,omitempty"`
	ClientRef     string `json:"client_ref,omitempty"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type MessageResponse struct {
	ID            string     `json:"id"`
	ChatID        string     `json:"chat_id"`
	SenderID      string     `json:"sender_id"`
	Kind          string     `json:"kind"`
	Content       string     `json:"content,omitempty"`
	AttachmentRef string     `json:"attachment_ref,omitempty"`
	ReplyToID     string     `json:"reply_to_id,omitempty"`
	ClientRef     string     `json:"client_ref,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	EditedAt      *time.Time `json:"edited_at,omitempty"`
}
