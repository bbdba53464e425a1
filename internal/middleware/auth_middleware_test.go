package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskboard-chat/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestParseUserID(t *testing.T) {
	auth := NewAuthenticator(testSecret)
	userID := uuid.New().String()

	subject, err := auth.ParseUserID(signToken(t, testSecret, userID, time.Hour))
	require.NoError(t, err)
	assert.Equal(t, userID, subject)
}

func TestParseUserIDRejectsBadTokens(t *testing.T) {
	auth := NewAuthenticator(testSecret)
	userID := uuid.New().String()

	_, err := auth.ParseUserID("")
	assert.Error(t, err)

	_, err = auth.ParseUserID(signToken(t, "other-secret", userID, time.Hour))
	assert.Error(t, err)

	_, err = auth.ParseUserID(signToken(t, testSecret, userID, -time.Hour))
	assert.Error(t, err, "expired tokens are rejected")

	_, err = auth.ParseUserID(signToken(t, testSecret, "", time.Hour))
	assert.Error(t, err, "tokens without a subject are rejected")
}

func TestAuthMiddlewarePutsUserInContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := NewAuthenticator(testSecret)
	userID := uuid.New()

	r := gin.New()
	var got uuid.UUID
	var ok bool
	r.GET("/probe", AuthMiddleware(auth), func(c *gin.Context) {
		got, ok = services.UserIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, userID.String(), time.Hour))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, ok)
	assert.Equal(t, userID, got)
}

func TestAuthMiddlewareRejectsMissingOrMalformedHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := NewAuthenticator(testSecret)

	r := gin.New()
	r.GET("/probe", AuthMiddleware(auth), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, header := range []string{"", "Bearer", "Basic dXNlcjpwYXNz", "Bearer not-a-token"} {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestInternalTokenMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/internal/scan", InternalTokenMiddleware("s3cret"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/internal/scan", nil)
	req.Header.Set("X-Internal-Token", "s3cret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/internal/scan", nil)
	req.Header.Set("X-Internal-Token", "wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInternalTokenMiddlewareDeniesWhenUnconfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/internal/scan", InternalTokenMiddleware(""), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/internal/scan", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "an empty token never matches")
}
