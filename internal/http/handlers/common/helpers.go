package common

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/ignatzorin/koihire-backend/internal/http/middleware"
	"github.com/ignatzorin/koihire-backend/internal/http/response"
)

// ErrUserNotFound пользователь не найден в контексте запроса.
var ErrUserNotFound = errors.New("пользователь не найден в контексте")

// CurrentUserID извлекает ID пользователя, выставленный auth middleware.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, ErrUserNotFound
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrUserNotFound
	}

	return userID, nil
}

func CurrentUserRole(c *gin.Context) string {
	role, _ := c.Get(middleware.ContextRoleKey)
	s, _ := role.(string)
	return s
}

// RequireUser возвращает ID пользователя или отвечает 401.
func RequireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, err := CurrentUserID(c)
	if err != nil {
		response.Unauthorized(c, "")
		return uuid.Nil, false
	}
	return userID, true
}

// UUIDParam разбирает параметр пути. При ошибке отвечает 400.
func UUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "параметр "+name+" должен быть валидным UUID")
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON читает тело и валидирует его через ozzo-validation, если тип это поддерживает.
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "некорректное тело запроса")
		return false
	}
	if v, ok := req.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			response.Validation(c, err)
			return false
		}
	}
	return true
}

func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// GetPagination limit и offset из query. Границы проверяет сервис.
func GetPagination(c *gin.Context) (limit, offset int) {
	return ParseIntQuery(c, "limit", 20), ParseIntQuery(c, "offset", 0)
}
