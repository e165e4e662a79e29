package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/koihire-backend/internal/http/response"
	"github.com/ignatzorin/koihire-backend/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRoleKey   = "role"
)

// AuthMiddleware проверяет JWT access токен из заголовка Authorization.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "")
			return
		}
		authenticate(c, tokens, raw)
	}
}

// CookieOrBearer принимает access токен из cookie сессии или из заголовка.
// Используется маршрутами оплаты, которые вызываются со страниц с cookie сессией.
func CookieOrBearer(tokens *service.TokenManager, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(cookieName)
		if err != nil || raw == "" {
			var ok bool
			if raw, ok = bearerToken(c); !ok {
				response.Unauthorized(c, "сессия не найдена")
				return
			}
		}
		authenticate(c, tokens, raw)
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}

func authenticate(c *gin.Context, tokens *service.TokenManager, raw string) {
	userID, role, err := tokens.ParseAccess(raw)
	if err != nil || userID == uuid.Nil {
		response.Unauthorized(c, "токен невалиден")
		return
	}

	c.Set(ContextUserIDKey, userID)
	c.Set(ContextRoleKey, role)
	c.Next()
}
