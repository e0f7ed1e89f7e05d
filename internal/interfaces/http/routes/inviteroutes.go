package routes

import (
	"github.com/gin-gonic/gin"

	"adapta/internal/interfaces/http/handlers"
	"adapta/internal/interfaces/http/middleware"
)

// InviteRouteConfig holds dependencies for invite routes.
type InviteRouteConfig struct {
	InviteHandler  *handlers.InviteHandler
	AuthMiddleware *middleware.AuthMiddleware
	AnonymousID    gin.HandlerFunc
	RateLimiter    *middleware.RateLimiter
}

// SetupInviteRoutes configures invite generation and attribution routes.
// Click and registration callbacks are unauthenticated because they are
// fired by referred visitors before they have any session.
func SetupInviteRoutes(engine *gin.Engine, cfg *InviteRouteConfig) {
	invites := engine.Group("/invites")
	{
		invites.POST("", cfg.AnonymousID, cfg.AuthMiddleware.OptionalAuth(), cfg.InviteHandler.Generate)
		invites.GET("", cfg.AnonymousID, cfg.AuthMiddleware.OptionalAuth(), cfg.InviteHandler.List)
		invites.POST("/:code/clicks", cfg.RateLimiter.Limit(), cfg.InviteHandler.Click)
		invites.POST("/:code/registrations", cfg.RateLimiter.Limit(), cfg.InviteHandler.Register)
	}
}
