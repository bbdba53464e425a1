package middleware

import (
	"taskboard-chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler logs any error handlers attached to the gin context.
// The response body has already been written by the handler; this only
// makes sure the failure shows up in the logs with request fields.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		if l != nil {
			l.WithContext(c.Request.Context()).Sugar().Errorf("request error: %s", err.Error())
		}
	}
}
