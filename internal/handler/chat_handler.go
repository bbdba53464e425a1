package handler

import (
	"net/http"
	"time"

	"taskboard-chat/internal/domain/chat"
	"taskboard-chat/internal/services"
	"taskboard-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ChatHandler struct {
	service *services.ChatService
}

func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// List returns the caller's chats with unread counts and last-message
// previews, newest activity first.
func (h *ChatHandler) List(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	summaries, err := h.service.ListChats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]httpdto.ChatSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, httpdto.NewChatSummaryResponse(s))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"chats": items}))
}

// Create resolves or creates the direct/project chat for the given target.
// Idempotent from the caller's perspective.
func (h *ChatHandler) Create(c *gin.Context) {
	var req httpdto.CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	var (
		result chat.Chat
		err    error
	)
	switch req.Kind {
	case "direct":
		targetID, parseErr := uuid.Parse(req.TargetUserID)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid target_user_id", "INVALID_REQUEST"))
			return
		}
		result, err = h.service.CreateOrGetDirectChat(c.Request.Context(), userID, targetID)
	case "project":
		projectID, parseErr := uuid.Parse(req.TargetProjectID)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid target_project_id", "INVALID_REQUEST"))
			return
		}
		result, err = h.service.CreateOrGetProjectChat(c.Request.Context(), userID, projectID)
	default:
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid kind", "INVALID_REQUEST"))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewChatResponse(result)))
}

// Messages returns one ascending page of history; ?before pages backward.
func (h *ChatHandler) Messages(c *gin.Context) {
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid chat id", "INVALID_REQUEST"))
		return
	}

	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid before cursor", "INVALID_REQUEST"))
			return
		}
		before = &parsed
	}

	msgs, err := h.service.Messages(c.Request.Context(), chatID, userID, before)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]httpdto.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, httpdto.NewMessageResponse(m))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"messages": items}))
}

// Send persists and broadcasts a new message in the chat.
func (h *ChatHandler) Send(c *gin.Context) {
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid chat id", "INVALID_REQUEST"))
		return
	}

	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	in := services.SendMessageInput{
		ChatID:        chatID,
		SenderID:      userID,
		Content:       req.Content,
		AttachmentRef: req.AttachmentRef,
		ClientRef:     req.ClientRef,
	}
	if req.ReplyToID != "" {
		replyTo, parseErr := uuid.Parse(req.ReplyToID)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid reply_to_id", "INVALID_REQUEST"))
			return
		}
		in.ReplyToID = uuid.NullUUID{UUID: replyTo, Valid: true}
	}

	m, err := h.service.Send(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.NewMessageResponse(m)))
}

// MarkRead raises the caller's read watermark for the chat.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid chat id", "INVALID_REQUEST"))
		return
	}

	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), chatID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
