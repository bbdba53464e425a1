package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	taskerrors "taskboard-chat/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
	}{
		{taskerrors.ErrInvalidInput, http.StatusBadRequest},
		{taskerrors.ErrForbidden, http.StatusForbidden},
		{taskerrors.ErrNotFound, http.StatusNotFound},
		{taskerrors.ErrAlreadyExists, http.StatusConflict},
		{taskerrors.ErrRateLimited, http.StatusTooManyRequests},
		{errors.New("pg: connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, tc.err)
		assert.Equal(t, tc.status, w.Code, "error %v", tc.err)
	}
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, errors.New("dial tcp 10.0.0.5:5432: i/o timeout"))

	assert.NotContains(t, w.Body.String(), "10.0.0.5")
	assert.Contains(t, w.Body.String(), "internal error")
}
