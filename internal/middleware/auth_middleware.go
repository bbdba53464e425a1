package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"taskboard-chat/internal/services"
	"taskboard-chat/internal/transport/httpdto"
	"taskboard-chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Authenticator verifies the access tokens issued by the main task board
// backend. Tokens are HS256 with the user id in the "sub" claim; this
// service never issues tokens itself.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// ParseUserID validates a raw token and returns the subject user id.
// Also satisfies the websocket handler's token parser.
func (a *Authenticator) ParseUserID(token string) (string, error) {
	if token == "" {
		return "", errors.New("missing token")
	}

	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

func AuthMiddleware(auth *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, err := auth.ParseUserID(extractBearer(c))
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		userID, err := uuid.Parse(subject)
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		ctx := services.WithUserID(c.Request.Context(), userID)
		ctx = context.WithValue(ctx, logger.UserIdKey, userID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// InternalTokenMiddleware guards operator-only routes such as the
// deadline scan trigger. The shared token comes from configuration.
func InternalTokenMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" || c.GetHeader("X-Internal-Token") != token {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
