package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/pashinov/nexus/internal/config"
	"github.com/pashinov/nexus/internal/http/handler"
	httpmiddleware "github.com/pashinov/nexus/internal/http/middleware"
	"github.com/pashinov/nexus/internal/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(
	cfg config.Config,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	authMiddleware *httpmiddleware.Auth,
	rateLimiter *middleware.RateLimiter,
	logger *zap.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(logger))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/", healthCheck)

	authGroup := r.Group("/auth")
	{
		authGroup.GET("/", authHandler.Login)
		authGroup.GET("/callback", authHandler.Callback)
		// Logout verifies the token itself: a revoked token must still be
		// accepted as a logout target.
		authGroup.POST("/logout", authHandler.Logout)
	}

	userGroup := r.Group("/user", authMiddleware.RequireAuth)
	{
		userGroup.GET("/info", userHandler.Info)
		userGroup.POST("/devices", userHandler.Devices)
	}

	return r
}

func healthCheck(c *gin.Context) {
	c.String(http.StatusOK, strconv.FormatInt(time.Now().UnixMilli(), 10))
}
