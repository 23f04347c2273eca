package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/queme-app/queme-client/internal/domain"
	"github.com/queme-app/queme-client/internal/gateway"
	"github.com/queme-app/queme-client/internal/session"
)

// SessionService is the session lifecycle as the UI consumes it.
type SessionService interface {
	Login(ctx context.Context, email, password string, expectedRole domain.Role) session.Result
	Register(ctx context.Context, form gateway.RegisterForm) session.Result
	Logout(ctx context.Context) error
	Current() *domain.Session
}

type SessionHandler struct {
	sessions SessionService
}

func NewSessionHandler(sessions SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) Register(router *gin.RouterGroup) {
	router.POST("/login", h.login)
	router.POST("/register", h.register)
	router.POST("/logout", h.logout)
	router.GET("/me", h.me)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

func (h *SessionHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.sessions.Login(c.Request.Context(), req.Email, req.Password, domain.Role(req.Role))
	if !res.Success {
		c.JSON(statusForFailure(res.Code), res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *SessionHandler) register(c *gin.Context) {
	var form gateway.RegisterForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.sessions.Register(c.Request.Context(), form)
	if !res.Success {
		c.JSON(statusForFailure(res.Code), res)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *SessionHandler) logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) me(c *gin.Context) {
	s := h.sessions.Current()
	if s == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	c.JSON(http.StatusOK, s.User)
}

func statusForFailure(code session.FailureCode) int {
	switch code {
	case session.FailWrongRole:
		return http.StatusForbidden
	case session.FailValidation:
		return http.StatusBadRequest
	case session.FailNetwork:
		return http.StatusBadGateway
	case session.FailStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusUnauthorized
	}
}
