package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/koihire-backend/internal/logger"
	"github.com/ignatzorin/koihire-backend/internal/pkg/apperror"
)

// Envelope единый формат JSON ответа.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    apperror.ErrorCode `json:"code"`
	Message string             `json:"message"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Fail отправляет ошибку с явным кодом.
func Fail(c *gin.Context, status int, code apperror.ErrorCode, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message},
	})
}

// Error переводит ошибку в ответ. Неизвестные ошибки логируются и отдаются как 500 без деталей.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.Code == apperror.ErrCodeUpstreamFailure || appErr.Code == apperror.ErrCodeInternal {
			logger.Log.WithFields(logrus.Fields{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
				"code":   appErr.Code,
			}).WithError(err).Error("request failed")
		}
		Fail(c, appErr.HTTPStatus, appErr.Code, appErr.Message)
		return
	}

	logger.Log.WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}).WithError(err).Error("unexpected error")
	Fail(c, http.StatusInternalServerError, apperror.ErrCodeInternal, "внутренняя ошибка сервера")
}

func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, apperror.ErrCodeBadRequest, message)
}

// Validation ответ на ошибки ozzo-validation.
func Validation(c *gin.Context, err error) {
	Fail(c, http.StatusBadRequest, apperror.ErrCodeValidation, err.Error())
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "требуется авторизация"
	}
	Fail(c, http.StatusUnauthorized, apperror.ErrCodeUnauthorized, message)
}
