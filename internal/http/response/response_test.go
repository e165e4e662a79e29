package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/koihire-backend/internal/pkg/apperror"
)

func perform(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	handler(c)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestOK(t *testing.T) {
	w, env := perform(t, func(c *gin.Context) { OK(c, gin.H{"a": 1}) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)
}

func TestError_AppError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   apperror.ErrorCode
	}{
		{apperror.ErrProjectNotFound, http.StatusNotFound, apperror.ErrCodeNotFound},
		{apperror.ErrInvalidItemType, http.StatusBadRequest, apperror.ErrCodeInvalidItemType},
		{apperror.InvalidTransition("эскроу", "RELEASED", "RELEASED"), http.StatusConflict, apperror.ErrCodeInvalidStateTransition},
		{fmt.Errorf("wrap: %w", apperror.Upstream(errors.New("x"), "процессор")), http.StatusBadGateway, apperror.ErrCodeUpstreamFailure},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			w, env := perform(t, func(c *gin.Context) { Error(c, tt.err) })
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestError_UnknownIsMasked(t *testing.T) {
	w, env := perform(t, func(c *gin.Context) { Error(c, errors.New("pq: connection refused")) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperror.ErrCodeInternal, env.Error.Code)
	assert.NotContains(t, env.Error.Message, "pq")
}
