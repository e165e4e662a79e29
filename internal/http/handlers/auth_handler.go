package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/koihire-backend/internal/dto"
	"github.com/ignatzorin/koihire-backend/internal/http/handlers/common"
	"github.com/ignatzorin/koihire-backend/internal/http/response"
	"github.com/ignatzorin/koihire-backend/internal/service"
)

// SessionCookie параметры cookie с access токеном.
type SessionCookie struct {
	Name   string
	Domain string
	Secure bool
}

// AuthHandler предоставляет HTTP слой для регистрации и логина.
type AuthHandler struct {
	auth   *service.AuthService
	tokens *service.TokenManager
	cookie SessionCookie
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(auth *service.AuthService, tokens *service.TokenManager, cookie SessionCookie) *AuthHandler {
	return &AuthHandler{auth: auth, tokens: tokens, cookie: cookie}
}

// Register POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !common.BindJSON(c, &req) {
		return
	}

	result, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Username:    req.Username,
		Role:        req.Role,
		DisplayName: req.DisplayName,
	}, sessionMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, result.TokenPair.AccessToken)
	response.Created(c, result)
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !common.BindJSON(c, &req) {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, sessionMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, result.TokenPair.AccessToken)
	response.OK(c, result)
}

// Refresh POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !common.BindJSON(c, &req) {
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, sessionMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, pair.AccessToken)
	response.OK(c, gin.H{"tokens": pair})
}

// Logout POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.RefreshRequest
	if !common.BindJSON(c, &req) {
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		response.Error(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", h.cookie.Domain, h.cookie.Secure, true)
	response.OK(c, gin.H{"loggedOut": true})
}

// Me GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	user, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, accessToken string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, accessToken, int(h.tokens.AccessTTL().Seconds()), "/", h.cookie.Domain, h.cookie.Secure, true)
}

func sessionMeta(c *gin.Context) service.SessionMeta {
	return service.SessionMeta{UserAgent: c.GetHeader("User-Agent"), IP: c.ClientIP()}
}
