package handler

import (
	"net/http"
	"strconv"
	"time"

	"taskboard-chat/internal/services"
	"taskboard-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	dispatcher *services.NotificationDispatcher
}

func NewNotificationHandler(dispatcher *services.NotificationDispatcher) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher}
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid limit", "INVALID_REQUEST"))
			return
		}
		limit = parsed
	}

	items, err := h.dispatcher.ListForUser(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	unread, err := h.dispatcher.CountUnread(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]httpdto.NotificationResponse, 0, len(items))
	for _, n := range items {
		resp = append(resp, httpdto.NewNotificationResponse(n))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
		"notifications": resp,
		"unread_count":  unread,
	}))
}

// MarkRead flips one notification's read flag.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid notification id", "INVALID_REQUEST"))
		return
	}

	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	if err := h.dispatcher.MarkRead(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// MarkAllRead flips every unread notification of the caller.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	if err := h.dispatcher.MarkAllRead(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// DeadlineScan is the hook for the external scheduler. It runs the scan
// with the current time; the route sits behind the internal-token check.
func (h *NotificationHandler) DeadlineScan(c *gin.Context) {
	if err := h.dispatcher.ScanDeadlines(c.Request.Context(), time.Now()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
