package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainoauth "github.com/pashinov/nexus/internal/domain/oauth"
	"github.com/pashinov/nexus/internal/http/middleware"
	"github.com/pashinov/nexus/internal/jwt"
	authsvc "github.com/pashinov/nexus/internal/service/auth"
)

// AuthHandler exposes the login, callback, and logout endpoints.
type AuthHandler struct {
	Auth   *authsvc.Service
	Tokens *jwt.Generator
	Logger *zap.Logger
}

// NewAuthHandler creates the handler set.
func NewAuthHandler(auth *authsvc.Service, tokens *jwt.Generator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Tokens: tokens, Logger: logger}
}

// Login initiates the flow: issues a CSRF state and redirects to the
// provider.
func (h *AuthHandler) Login(c *gin.Context) {
	out, err := h.Auth.StartLogin(c.Request.Context())
	if err != nil {
		h.log().Error("start login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Authentication failed."})
		return
	}
	c.Redirect(http.StatusFound, out.AuthorizationURL)
}

// Callback completes the handshake and returns the signed session token.
// Provider error detail never reaches the client.
func (h *AuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")

	token, err := h.Auth.HandleCallback(c.Request.Context(), code, state)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"token": token})
	case errors.Is(err, domainoauth.ErrInvalidState), errors.Is(err, domainoauth.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_state", "error_description": "Invalid state parameter."})
	case errors.Is(err, domainoauth.ErrUpstream):
		h.log().Error("provider exchange failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Authentication failed."})
	default:
		h.log().Error("callback failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Authentication failed."})
	}
}

// Logout revokes the presented token. Verification here checks signature
// and expiry only: an already-revoked token is still a valid logout target,
// so the revocation middleware is deliberately not in front of this route.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Authorization required."})
		return
	}
	claims, err := h.Tokens.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Invalid access token."})
		return
	}

	if err := h.Auth.Logout(c.Request.Context(), claims); err != nil {
		h.log().Error("logout failed", zap.Error(err), zap.String("jti", claims.TokenID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Internal error."})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) log() *zap.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return zap.L()
}
