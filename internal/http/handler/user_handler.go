package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pashinov/nexus/internal/http/middleware"
)

// UserHandler serves protected user resources.
type UserHandler struct{}

// NewUserHandler creates the user handler.
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Device is a registered user device.
type Device struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Info returns the authenticated session claims.
func (h *UserHandler) Info(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Authorization required."})
		return
	}
	c.JSON(http.StatusOK, claims)
}

// Devices lists the user's registered devices of the requested type.
// Device registration is not implemented yet, so the list is empty.
func (h *UserHandler) Devices(c *gin.Context) {
	var req struct {
		Type string `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Device type required."})
		return
	}
	c.JSON(http.StatusOK, []Device{})
}
