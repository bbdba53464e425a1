package httpdto

import (
	"time"

	"taskboard-chat/internal/domain/chat"
	"taskboard-chat/internal/domain/message"
	"taskboard-chat/internal/services"
)

type CreateChatRequest struct {
	Kind            string `json:"kind" binding:"required"`
	TargetUserID    string `json:"target_user_id,omitempty"`
	TargetProjectID string `json:"target_project_id,omitempty"`
}

type ChatResponse struct {
	ID         string           `json:"id"`
	Kind       string           `json:"kind"`
	Name       string           `json:"name,omitempty"`
	ProjectRef string           `json:"project_ref,omitempty"`
	CreatedBy  string           `json:"created_by"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Members    []MemberResponse `json:"members,omitempty"`
}

type MemberResponse struct {
	UserID     string     `json:"user_id"`
	Role       string     `json:"role"`
	LastReadAt *time.Time `json:"last_read_at,omitempty"`
}

type ChatSummaryResponse struct {
	ChatResponse
	UnreadCount int64            `json:"unread_count"`
	LastMessage *MessageResponse `json:"last_message,omitempty"`
}

func NewChatResponse(c chat.Chat) ChatResponse {
	resp := ChatResponse{
		ID:        c.ID.String(),
		Kind:      c.Kind,
		Name:      c.Name.String,
		CreatedBy: c.CreatedBy.String(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.ProjectRef.Valid {
		resp.ProjectRef = c.ProjectRef.UUID.String()
	}
	for _, m := range c.Members {
		member := MemberResponse{UserID: m.UserID.String(), Role: m.Role}
		if m.LastReadAt.Valid {
			t := m.LastReadAt.Time
			member.LastReadAt = &t
		}
		resp.Members = append(resp.Members, member)
	}
	return resp
}

func NewChatSummaryResponse(s services.ChatSummary) ChatSummaryResponse {
	resp := ChatSummaryResponse{
		ChatResponse: NewChatResponse(s.Chat),
		UnreadCount:  s.UnreadCount,
	}
	if s.LastMessage != nil {
		m := NewMessageResponse(*s.LastMessage)
		resp.LastMessage = &m
	}
	return resp
}

func NewMessageResponse(m message.Message) MessageResponse {
	resp := MessageResponse{
		ID:            m.ID.String(),
		ChatID:        m.ChatID.String(),
		SenderID:      m.SenderID.String(),
		Kind:          m.Kind,
		Content:       m.Content.String,
		AttachmentRef: m.AttachmentRef.String,
		ClientRef:     m.ClientRef.String,
		CreatedAt:     m.CreatedAt,
	}
	if m.ReplyToID.Valid {
		resp.ReplyToID = m.ReplyToID.UUID.String()
	}
	if m.EditedAt.Valid {
		t := m.EditedAt.Time
		resp.EditedAt = &t
	}
	return resp
}
