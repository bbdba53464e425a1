package handler

import (
	"errors"
	"net/http"

	"taskboard-chat/internal/transport/httpdto"
	taskerrors "taskboard-chat/pkg/errors"

	"github.com/gin-gonic/gin"
)

// respondError maps sentinel errors onto HTTP statuses. Anything unmapped
// is an internal error; the raw message is not leaked.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, taskerrors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
	case errors.Is(err, taskerrors.ErrForbidden):
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse(err.Error(), "FORBIDDEN"))
	case errors.Is(err, taskerrors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse(err.Error(), "NOT_FOUND"))
	case errors.Is(err, taskerrors.ErrAlreadyExists):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "CONFLICT"))
	case errors.Is(err, taskerrors.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse(err.Error(), "RATE_LIMITED"))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal error", "INTERNAL_ERROR"))
	}
}
