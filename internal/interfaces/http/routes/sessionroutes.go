package routes

import (
	"github.com/gin-gonic/gin"

	"adapta/internal/interfaces/http/handlers"
	"adapta/internal/interfaces/http/middleware"
)

// SessionRouteConfig holds dependencies for session and authentication routes.
type SessionRouteConfig struct {
	SessionHandler *handlers.SessionHandler
	AuthMiddleware *middleware.AuthMiddleware
	AnonymousID    gin.HandlerFunc
	RateLimiter    *middleware.RateLimiter
}

// SetupSessionRoutes configures the login flow and session lifecycle routes.
func SetupSessionRoutes(engine *gin.Engine, cfg *SessionRouteConfig) {
	auth := engine.Group("/auth")
	auth.Use(cfg.AnonymousID, cfg.AuthMiddleware.OptionalAuth())
	{
		auth.POST("/login", cfg.RateLimiter.Limit(), cfg.SessionHandler.Login)
		auth.GET("/callback", cfg.RateLimiter.Limit(), cfg.SessionHandler.Callback)
		auth.POST("/refresh", cfg.SessionHandler.Refresh)
		auth.POST("/logout", cfg.SessionHandler.Logout)
	}

	session := engine.Group("/session")
	session.Use(cfg.AnonymousID, cfg.AuthMiddleware.OptionalAuth())
	{
		session.GET("", cfg.SessionHandler.GetSession)
		session.POST("/permissions", cfg.SessionHandler.EvaluatePermissions)
	}

	me := engine.Group("/me")
	me.Use(cfg.AuthMiddleware.RequireAuth())
	{
		me.GET("", cfg.SessionHandler.Me)
		me.PATCH("", cfg.SessionHandler.UpdateMe)
	}
}
