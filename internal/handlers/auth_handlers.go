package handlers

import (
	"context"
	"net/http"

	"ewallet/internal/models"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=auth_handlers.go -destination=../../test/mock_auth_service.go -package=test AuthService

type AuthService interface {
	Signup(ctx context.Context, username, email, password string) (models.UserProfile, error)
	Login(ctx context.Context, username, password string) (models.UserProfile, error)
}

type AuthHTTPHandler struct {
	service AuthService
}

func NewAuthHTTPHandler(service AuthService) *AuthHTTPHandler {
	return &AuthHTTPHandler{service: service}
}

func (h *AuthHTTPHandler) RegisterRoutes(r *gin.Engine) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/signup", h.HandleSignup)
		auth.POST("/login", h.HandleLogin)
	}
}

func (h *AuthHTTPHandler) HandleSignup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	profile, err := h.service.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, profile)
}

func (h *AuthHTTPHandler) HandleLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	profile, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}
