package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/stockdd-timeline/internal/auth"
	"github.com/ajharbinger/stockdd-timeline/internal/logger"
)

// AuthHandler exchanges the admin key for a bearer token
type AuthHandler struct {
	jwt          *auth.JWTService
	adminKeyHash string
	logger       logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(jwtService *auth.JWTService, adminKeyHash string, log logger.Logger) *AuthHandler {
	return &AuthHandler{jwt: jwtService, adminKeyHash: adminKeyHash, logger: log}
}

// TokenRequest represents a token request
type TokenRequest struct {
	AdminKey string `json:"admin_key" binding:"required"`
}

// IssueToken returns an admin token for a valid admin key
func (h *AuthHandler) IssueToken(c *gin.Context) {
	if h.jwt == nil || h.adminKeyHash == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Admin authentication is not configured"})
		return
	}

	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	if !auth.CheckAdminKey(req.AdminKey, h.adminKeyHash) {
		h.logger.Warn("Rejected admin key", "client_ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, expiresAt, err := h.jwt.GenerateToken(auth.RoleAdmin, auth.RoleAdmin)
	if err != nil {
		h.logger.Error("Failed to sign admin token", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": expiresAt,
	})
}
