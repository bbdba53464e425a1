package handler

import (
	"net/http"

	"taskboard-chat/internal/services"
	"taskboard-chat/internal/storage"
	"taskboard-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	store *storage.Client
}

func NewUploadHandler(store *storage.Client) *UploadHandler {
	return &UploadHandler{store: store}
}

// Presign hands the client a one-shot PUT URL for an attachment. The
// returned key is what the client later sends as attachment_ref.
func (h *UploadHandler) Presign(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("attachment storage not configured", "STORAGE_UNAVAILABLE"))
		return
	}

	var req httpdto.PresignUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
		return
	}
	if req.SizeBytes < 0 || req.SizeBytes > storage.MaxAttachmentBytes {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("file too large", "INVALID_REQUEST"))
		return
	}

	key := storage.AttachmentKey(userID, req.FileName)
	uploadURL, headers, err := h.store.PresignPut(c.Request.Context(), key, req.ContentType, req.SizeBytes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.PresignUploadResponse{
		Key:       key,
		UploadURL: uploadURL,
		Headers:   headers,
		FileURL:   h.store.FileURL(key),
	}))
}
